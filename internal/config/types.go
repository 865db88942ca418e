package config

// Config holds all w3fund configuration.
type Config struct {
	Network         string   `json:"network"`
	ChainID         int64    `json:"chain_id"`
	RPCs            []string `json:"rpcs,omitempty"`  // empty means the registry defaults for Network
	RPCAlgorithm    string   `json:"rpc_algorithm"`   // "fastest" | "failover"
	TokenAddress    string   `json:"token_address"`   // GAME token
	FactoryAddress  string   `json:"factory_address"`
	StoreAddress    string   `json:"store_address"`
	DefaultWallet   string   `json:"default_wallet,omitempty"`
	PollIntervalMS  int      `json:"poll_interval_ms"`
	RefreshInterval int      `json:"refresh_interval"` // seconds, campaign board

	// internal: config dir path used for Save()
	configDir string
}

// Deployment is the address manifest left behind by a contract deployment.
// Any field may be empty; only the ones present are applied.
type Deployment struct {
	Network        string
	ChainID        int64
	TokenAddress   string
	FactoryAddress string
	StoreAddress   string
	RPCs           []string
}
