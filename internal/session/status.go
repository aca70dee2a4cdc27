package session

import "github.com/ethereum/go-ethereum/common"

// Status is the lifecycle stage of the most recent write.
type Status int

const (
	StatusIdle Status = iota
	StatusSubmitting
	StatusConfirming
	StatusConfirmed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSubmitting:
		return "submitting"
	case StatusConfirming:
		return "confirming"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}

// TxState is the status record of the most recent write.
type TxState struct {
	Status Status
	Action string
	Hash   common.Hash // zero until the write is accepted
	Err    error       // set when Status == StatusFailed
}

// Busy reports whether a write is in flight. Action triggers stay disabled
// while it is true.
func (s TxState) Busy() bool {
	return s.Status == StatusSubmitting || s.Status == StatusConfirming
}

// HasHash reports whether the write has been assigned a transaction hash.
func (s TxState) HasHash() bool {
	return s.Hash != (common.Hash{})
}
