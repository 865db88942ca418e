package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDeployment is returned when a manifest names no known field.
var ErrEmptyDeployment = errors.New("deployment manifest has no recognised fields")

// Accepted spellings per field, after lowercasing and dropping '_' and '-'.
// Covers snake_case manifests, the browser APP_CONFIG object, and the
// "GAME: 0x..." lines printed by the deploy script.
var deploymentAliases = map[string][]string{
	"network": {"network"},
	"chainid": {"chainid"},
	"token":   {"token", "tokenaddress", "game", "gameaddress"},
	"factory": {"factory", "factoryaddress"},
	"store":   {"store", "storeaddress"},
	"rpcs":    {"rpcs", "rpc", "rpcurls"},
}

// ParseDeployment reads a YAML or JSON deployment manifest. Scalars are
// read as written, so unquoted hex addresses never turn into integers.
func ParseDeployment(data []byte) (*Deployment, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing deployment: %w", err)
	}
	fields := make(map[string]*yaml.Node, len(raw))
	for k, v := range raw {
		node := v
		fields[normalizeKey(k)] = &node
	}
	lookup := func(name string) *yaml.Node {
		for _, alias := range deploymentAliases[name] {
			if n, ok := fields[alias]; ok {
				return n
			}
		}
		return nil
	}

	d := &Deployment{}
	found := false
	if n := lookup("network"); n != nil {
		d.Network = strings.ToLower(strings.TrimSpace(n.Value))
		found = true
	}
	if n := lookup("chainid"); n != nil {
		id, err := parseChainID(n.Value)
		if err != nil {
			return nil, err
		}
		d.ChainID = id
		found = true
	}
	for name, dst := range map[string]*string{
		"token":   &d.TokenAddress,
		"factory": &d.FactoryAddress,
		"store":   &d.StoreAddress,
	} {
		n := lookup(name)
		if n == nil {
			continue
		}
		v := strings.TrimSpace(n.Value)
		if !common.IsHexAddress(v) {
			return nil, fmt.Errorf("%s address is not hex: %q", name, v)
		}
		*dst = common.HexToAddress(v).Hex()
		found = true
	}
	if n := lookup("rpcs"); n != nil {
		switch n.Kind {
		case yaml.SequenceNode:
			if err := n.Decode(&d.RPCs); err != nil {
				return nil, fmt.Errorf("parsing rpcs: %w", err)
			}
		case yaml.ScalarNode:
			d.RPCs = []string{n.Value}
		}
		found = true
	}
	if !found {
		return nil, ErrEmptyDeployment
	}
	return d, nil
}

// Import reads the manifest at path and applies it.
func (c *Config) Import(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deployment: %w", err)
	}
	d, err := ParseDeployment(data)
	if err != nil {
		return nil, err
	}
	c.Apply(d)
	return d, nil
}

// IsManifestURL reports whether src names a remote manifest.
func IsManifestURL(src string) bool {
	return strings.HasPrefix(src, "https://") || strings.HasPrefix(src, "http://")
}

// ImportURL fetches the manifest published at url and applies it.
func (c *Config) ImportURL(ctx context.Context, hc *http.Client, url string) (*Deployment, error) {
	if hc == nil {
		hc = &http.Client{Timeout: ManifestTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching deployment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching deployment: %s returned %s", url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return nil, fmt.Errorf("reading deployment: %w", err)
	}
	d, err := ParseDeployment(data)
	if err != nil {
		return nil, err
	}
	c.Apply(d)
	return d, nil
}

// Apply overwrites the fields d sets.
func (c *Config) Apply(d *Deployment) {
	if d.Network != "" {
		c.Network = d.Network
	}
	if d.ChainID != 0 {
		c.ChainID = d.ChainID
	}
	if d.TokenAddress != "" {
		c.TokenAddress = d.TokenAddress
	}
	if d.FactoryAddress != "" {
		c.FactoryAddress = d.FactoryAddress
	}
	if d.StoreAddress != "" {
		c.StoreAddress = d.StoreAddress
	}
	if len(d.RPCs) > 0 {
		c.RPCs = d.RPCs
	}
}

func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(k)
}
