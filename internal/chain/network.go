package chain

import (
	"fmt"
	"sort"
	"strings"

	clierr "github.com/Mohsinsiddi/w3invoke/internal/errors"
)

// Network holds the metadata for one supported EVM network.
type Network struct {
	Name           string `json:"name"`
	DisplayName    string `json:"display_name"`
	ChainID        int64  `json:"chain_id"`
	NativeCurrency string `json:"native_currency"`
	AlchemySlug    string `json:"alchemy_slug"`
	Explorer       string `json:"explorer"`
}

// RPCEnv is the environment variable that overrides the endpoint, e.g. BASE_RPC.
func (n *Network) RPCEnv() string {
	return strings.ToUpper(n.Name) + "_RPC"
}

// Endpoint returns the JSON-RPC URL. apiKey is required even when an
// override is given; a non-empty override then replaces the Alchemy URL.
func (n *Network) Endpoint(apiKey, override string) (string, error) {
	if apiKey == "" {
		return "", clierr.New(clierr.CodeConfiguration, "ALCHEMY_API_KEY is not set")
	}
	if override != "" {
		return override, nil
	}
	return fmt.Sprintf("https://%s.g.alchemy.com/v2/%s", n.AlchemySlug, apiKey), nil
}

// TxURL links a transaction hash on the network's explorer.
func (n *Network) TxURL(hash string) string {
	if n.Explorer == "" {
		return ""
	}
	return strings.TrimSuffix(n.Explorer, "/") + "/tx/" + hash
}

// Registry is the network registry.
type Registry struct {
	networks []Network
	byName   map[string]*Network
}

// NewRegistry returns the registry of supported networks.
func NewRegistry() *Registry {
	networks := allNetworks()
	r := &Registry{
		networks: networks,
		byName:   make(map[string]*Network, len(networks)),
	}
	for i := range r.networks {
		n := &r.networks[i]
		r.byName[n.Name] = n
	}
	return r
}

// All returns every network sorted by name.
func (r *Registry) All() []Network {
	out := append([]Network(nil), r.networks...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted network keys.
func (r *Registry) Names() []string {
	all := r.All()
	names := make([]string, len(all))
	for i, n := range all {
		names[i] = n.Name
	}
	return names
}

// GetByName finds a network by its key (e.g. "base", "ethereum").
func (r *Registry) GetByName(name string) (*Network, error) {
	n, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, clierr.Newf(clierr.CodeUnsupportedNetwork,
			"unsupported network %q (supported: %s)", name, strings.Join(r.Names(), ", "))
	}
	return n, nil
}

func allNetworks() []Network {
	return []Network{
		{
			Name: "ethereum", DisplayName: "Ethereum Mainnet", ChainID: 1,
			NativeCurrency: "ETH", AlchemySlug: "eth-mainnet", Explorer: "https://etherscan.io",
		},
		{
			Name: "avalanche", DisplayName: "Avalanche C-Chain", ChainID: 43114,
			NativeCurrency: "AVAX", AlchemySlug: "avax-mainnet", Explorer: "https://snowtrace.io",
		},
		{
			Name: "base", DisplayName: "Base Mainnet", ChainID: 8453,
			NativeCurrency: "ETH", AlchemySlug: "base-mainnet", Explorer: "https://basescan.org",
		},
		{
			Name: "polygon", DisplayName: "Polygon PoS", ChainID: 137,
			NativeCurrency: "POL", AlchemySlug: "polygon-mainnet", Explorer: "https://polygonscan.com",
		},
		{
			Name: "arbitrum", DisplayName: "Arbitrum One", ChainID: 42161,
			NativeCurrency: "ETH", AlchemySlug: "arb-mainnet", Explorer: "https://arbiscan.io",
		},
		{
			Name: "optimism", DisplayName: "OP Mainnet", ChainID: 10,
			NativeCurrency: "ETH", AlchemySlug: "opt-mainnet", Explorer: "https://optimistic.etherscan.io",
		},
	}
}
