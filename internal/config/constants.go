package config

import "time"

// Defaults target the Sepolia deployment.
const (
	DefaultNetwork         = "sepolia"
	DefaultChainID         = int64(11155111)
	DefaultAlgorithm       = "fastest"
	DefaultPollIntervalMS  = 2000
	DefaultRefreshInterval = 10

	// EnvConfigDir overrides ~/.w3fund when no --config flag is given.
	EnvConfigDir = "W3FUND_CONFIG_DIR"
)

// Timeouts used by cmd.
const (
	RPCSelectTimeout = 10 * time.Second // endpoint benchmark
	ReadTimeout      = 30 * time.Second // one aggregated read
	ManifestTimeout  = 15 * time.Second // remote deployment manifest
)

const (
	configFile  = "config.json"
	walletsFile = "wallets.json"
	grantsFile  = "grants.json"
	hintFile    = "last_address"
	keyringDir  = "keys"

	maxManifestBytes = 1 << 20
)
