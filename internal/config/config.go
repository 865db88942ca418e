package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mohsinsiddi/w3fund/internal/rpc"
)

// ErrUnknownKey is returned by Set for keys that are not config fields.
var ErrUnknownKey = errors.New("unknown config key")

// Keys lists the settable config keys in display order.
var Keys = []string{
	"network", "chain_id", "rpc_algorithm",
	"token_address", "factory_address", "store_address",
	"default_wallet", "poll_interval_ms", "refresh_interval",
}

// DefaultDir resolves the config directory: $W3FUND_CONFIG_DIR, else ~/.w3fund.
func DefaultDir() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home dir: %w", err)
	}
	return filepath.Join(home, ".w3fund"), nil
}

// Load reads config from dir (or creates defaults). dir defaults to DefaultDir.
func Load(dir string) (*Config, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.configDir = dir
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Validate checks that the config can drive a session.
func (c *Config) Validate() error {
	var errs []error
	if c.ChainID <= 0 {
		errs = append(errs, fmt.Errorf("chain_id must be positive, got %d", c.ChainID))
	}
	if _, err := rpc.ParseAlgorithm(c.RPCAlgorithm); err != nil {
		errs = append(errs, err)
	}
	for _, f := range c.addressFields() {
		if *f.val != "" && !common.IsHexAddress(*f.val) {
			errs = append(errs, fmt.Errorf("%s is not a hex address: %q", f.key, *f.val))
		}
	}
	if c.PollIntervalMS < 0 {
		errs = append(errs, fmt.Errorf("poll_interval_ms must not be negative"))
	}
	if c.RefreshInterval < 0 {
		errs = append(errs, fmt.Errorf("refresh_interval must not be negative"))
	}
	return errors.Join(errs...)
}

// Missing returns the keys of contract addresses that are not set yet.
func (c *Config) Missing() []string {
	var out []string
	for _, f := range c.addressFields() {
		if *f.val == "" {
			out = append(out, f.key)
		}
	}
	return out
}

// Get returns the string form of key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "network":
		return c.Network, nil
	case "chain_id":
		return strconv.FormatInt(c.ChainID, 10), nil
	case "rpc_algorithm":
		return c.RPCAlgorithm, nil
	case "token_address":
		return c.TokenAddress, nil
	case "factory_address":
		return c.FactoryAddress, nil
	case "store_address":
		return c.StoreAddress, nil
	case "default_wallet":
		return c.DefaultWallet, nil
	case "poll_interval_ms":
		return strconv.Itoa(c.PollIntervalMS), nil
	case "refresh_interval":
		return strconv.Itoa(c.RefreshInterval), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set parses value into key. The result is not validated as a whole.
func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case "network":
		c.Network = strings.ToLower(value)
	case "chain_id":
		id, err := parseChainID(value)
		if err != nil {
			return err
		}
		c.ChainID = id
	case "rpc_algorithm":
		if _, err := rpc.ParseAlgorithm(value); err != nil {
			return err
		}
		c.RPCAlgorithm = value
	case "token_address", "factory_address", "store_address":
		if value != "" && !common.IsHexAddress(value) {
			return fmt.Errorf("%s is not a hex address: %q", key, value)
		}
		for _, f := range c.addressFields() {
			if f.key == key {
				*f.val = checksum(value)
			}
		}
	case "default_wallet":
		c.DefaultWallet = value
	case "poll_interval_ms", "refresh_interval":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s must be a non-negative integer, got %q", key, value)
		}
		if key == "poll_interval_ms" {
			c.PollIntervalMS = n
		} else {
			c.RefreshInterval = n
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return nil
}

// AddRPC adds a custom RPC URL.
func (c *Config) AddRPC(url string) error {
	if slices.Contains(c.RPCs, url) {
		return fmt.Errorf("RPC %s already exists", url)
	}
	c.RPCs = append(c.RPCs, url)
	return nil
}

// RemoveRPC removes a custom RPC URL.
func (c *Config) RemoveRPC(url string) error {
	idx := slices.Index(c.RPCs, url)
	if idx == -1 {
		return fmt.Errorf("RPC %s not found", url)
	}
	c.RPCs = slices.Delete(c.RPCs, idx, idx+1)
	return nil
}

// PollInterval is the receipt polling pace.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Refresh is the campaign board refresh period.
func (c *Config) Refresh() time.Duration {
	if c.RefreshInterval <= 0 {
		return DefaultRefreshInterval * time.Second
	}
	return time.Duration(c.RefreshInterval) * time.Second
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is where the wallet list is stored.
func (c *Config) WalletsPath() string { return filepath.Join(c.configDir, walletsFile) }

// GrantsPath is where account-access grants are stored.
func (c *Config) GrantsPath() string { return filepath.Join(c.configDir, grantsFile) }

// HintPath is where the last connected address is remembered.
func (c *Config) HintPath() string { return filepath.Join(c.configDir, hintFile) }

// KeyringDir backs the file keyring when no OS keychain is available.
func (c *Config) KeyringDir() string { return filepath.Join(c.configDir, keyringDir) }

// --- helpers ---

func defaults(dir string) *Config {
	return &Config{
		Network:         DefaultNetwork,
		ChainID:         DefaultChainID,
		RPCAlgorithm:    DefaultAlgorithm,
		PollIntervalMS:  DefaultPollIntervalMS,
		RefreshInterval: DefaultRefreshInterval,
		configDir:       dir,
	}
}

type addressField struct {
	key string
	val *string
}

func (c *Config) addressFields() []addressField {
	return []addressField{
		{"token_address", &c.TokenAddress},
		{"factory_address", &c.FactoryAddress},
		{"store_address", &c.StoreAddress},
	}
}

func checksum(addr string) string {
	if addr == "" {
		return ""
	}
	return common.HexToAddress(addr).Hex()
}

// parseChainID accepts decimal or 0x-prefixed hex.
func parseChainID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	var (
		id  int64
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		id, err = strconv.ParseInt(s[2:], 16, 64)
	} else {
		id, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid chain id %q", s)
	}
	return id, nil
}
