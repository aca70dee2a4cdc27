package config

// Config holds all w3penalty configuration.
type Config struct {
	Contract       string              `json:"contract" mapstructure:"contract"` // penalty contract address
	DefaultNetwork string              `json:"default_network" mapstructure:"default_network"`
	DefaultWallet  string              `json:"default_wallet" mapstructure:"default_wallet"`
	NetworkMode    string              `json:"network_mode" mapstructure:"network_mode"`       // "mainnet" | "testnet"
	RPCAlgorithm   string              `json:"rpc_algorithm" mapstructure:"rpc_algorithm"`     // "fastest" | "round-robin" | "failover"
	RPCURL         string              `json:"rpc_url,omitempty" mapstructure:"rpc_url"`       // pins one endpoint, skipping selection
	PollInterval   int                 `json:"poll_interval" mapstructure:"poll_interval"`     // seconds between receipt polls
	ConfirmTimeout int                 `json:"confirm_timeout" mapstructure:"confirm_timeout"` // seconds
	LogFile        string              `json:"log_file,omitempty" mapstructure:"log_file"`
	LogLevel       string              `json:"log_level" mapstructure:"log_level"`
	CustomRPCs     map[string][]string `json:"custom_rpcs" mapstructure:"custom_rpcs"`

	// internal: config dir path used for Save()
	configDir string
	// environment overrides, undone on Save
	overrides []override
}

// override remembers the file value an environment variable replaced.
type override struct {
	key       string
	fileValue string
	envValue  string
}
