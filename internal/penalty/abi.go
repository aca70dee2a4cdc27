package penalty

// ABIJSON is the interface of the penalty contract.
const ABIJSON = `[
  {"type":"function","name":"finePerPenalty","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getPenalties","stateMutability":"view","inputs":[{"name":"who","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"isBlocked","stateMutability":"view","inputs":[{"name":"who","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"blockThreshold","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"issuePenalty","stateMutability":"nonpayable","inputs":[{"name":"who","type":"address"}],"outputs":[]},
  {"type":"function","name":"payFine","stateMutability":"payable","inputs":[],"outputs":[]},
  {"type":"function","name":"clearPenalties","stateMutability":"nonpayable","inputs":[{"name":"who","type":"address"}],"outputs":[]},
  {"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"setBlockThreshold","stateMutability":"nonpayable","inputs":[{"name":"newThreshold","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setFineAmount","stateMutability":"nonpayable","inputs":[{"name":"newFine","type":"uint256"}],"outputs":[]}
]`

// Method names as they appear in the ABI.
const (
	MethodFinePerPenalty    = "finePerPenalty"
	MethodGetPenalties      = "getPenalties"
	MethodIsBlocked         = "isBlocked"
	MethodBlockThreshold    = "blockThreshold"
	MethodOwner             = "owner"
	MethodIssuePenalty      = "issuePenalty"
	MethodPayFine           = "payFine"
	MethodClearPenalties    = "clearPenalties"
	MethodWithdraw          = "withdraw"
	MethodSetBlockThreshold = "setBlockThreshold"
	MethodSetFineAmount     = "setFineAmount"
)
