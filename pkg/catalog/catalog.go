// Package catalog provides the static reference data for supported chains
// and bridgeable tokens. The data is read-only at runtime; deployments can
// override the compiled-in defaults through the config file.
package catalog

import (
	"strings"

	"github.com/chainsafe/crosschain-middleware/pkg/config"
)

// Chain describes one supported chain.
type Chain struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Symbol          string `json:"symbol"`
	BlockTime       int    `json:"blockTime"`
	ConfirmedBlocks int    `json:"confirmedBlocks"`
	Testnet         bool   `json:"isTestnet,omitempty"`
}

// Token describes one bridgeable token and the chains it can move between.
type Token struct {
	Address  string  `json:"address"`
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Decimals int     `json:"decimals"`
	Chains   []int64 `json:"chains"`
	Native   bool    `json:"isNative"`
}

// Catalog is an immutable lookup of supported chains and tokens.
type Catalog struct {
	chains  []Chain
	tokens  []Token
	chainID map[int64]Chain
	tokenAd map[string]Token
}

// New builds a catalog from explicit chain and token lists.
func New(chains []Chain, tokens []Token) *Catalog {
	c := &Catalog{
		chains:  chains,
		tokens:  tokens,
		chainID: make(map[int64]Chain, len(chains)),
		tokenAd: make(map[string]Token, len(tokens)),
	}
	for _, ch := range chains {
		c.chainID[ch.ID] = ch
	}
	for _, tk := range tokens {
		c.tokenAd[strings.ToLower(tk.Address)] = tk
	}
	return c
}

// Default returns the compiled-in catalog.
func Default() *Catalog {
	return New(defaultChains(), defaultTokens())
}

// FromConfig builds a catalog from the config file lists, falling back to
// the compiled-in defaults when a list is empty.
func FromConfig(chains []config.ChainConfig, tokens []config.TokenConfig) *Catalog {
	cs := defaultChains()
	if len(chains) > 0 {
		cs = make([]Chain, 0, len(chains))
		for _, ch := range chains {
			cs = append(cs, Chain{
				ID:              ch.ID,
				Name:            ch.Name,
				Symbol:          ch.Symbol,
				BlockTime:       ch.BlockTime,
				ConfirmedBlocks: ch.ConfirmedBlocks,
				Testnet:         ch.Testnet,
			})
		}
	}

	ts := defaultTokens()
	if len(tokens) > 0 {
		ts = make([]Token, 0, len(tokens))
		for _, tk := range tokens {
			ts = append(ts, Token{
				Address:  tk.Address,
				Name:     tk.Name,
				Symbol:   tk.Symbol,
				Decimals: tk.Decimals,
				Chains:   tk.Chains,
				Native:   tk.Native,
			})
		}
	}

	return New(cs, ts)
}

// Chains returns all supported chains.
func (c *Catalog) Chains() []Chain {
	return c.chains
}

// Tokens returns all bridgeable tokens.
func (c *Catalog) Tokens() []Token {
	return c.tokens
}

// ChainIDs returns the ids of all supported chains.
func (c *Catalog) ChainIDs() []int64 {
	ids := make([]int64, 0, len(c.chains))
	for _, ch := range c.chains {
		ids = append(ids, ch.ID)
	}
	return ids
}

// ChainByID looks up a chain by id.
func (c *Catalog) ChainByID(id int64) (Chain, bool) {
	ch, ok := c.chainID[id]
	return ch, ok
}

// SupportedChain reports whether the chain id is in the catalog.
func (c *Catalog) SupportedChain(id int64) bool {
	_, ok := c.chainID[id]
	return ok
}

// TokenByAddress looks up a token by its address, case-insensitively.
func (c *Catalog) TokenByAddress(address string) (Token, bool) {
	tk, ok := c.tokenAd[strings.ToLower(address)]
	return tk, ok
}

// Bridgeable reports whether the token is known and supported on the given
// chain.
func (c *Catalog) Bridgeable(tokenAddress string, chainID int64) bool {
	tk, ok := c.TokenByAddress(tokenAddress)
	if !ok {
		return false
	}
	for _, id := range tk.Chains {
		if id == chainID {
			return true
		}
	}
	return false
}

func defaultChains() []Chain {
	return []Chain{
		{ID: 1, Name: "Ethereum Mainnet", Symbol: "ETH", BlockTime: 12, ConfirmedBlocks: 12},
		{ID: 137, Name: "Polygon", Symbol: "MATIC", BlockTime: 2, ConfirmedBlocks: 50},
		{ID: 56, Name: "Binance Smart Chain", Symbol: "BNB", BlockTime: 3, ConfirmedBlocks: 15},
		{ID: 42161, Name: "Arbitrum One", Symbol: "ETH", BlockTime: 2, ConfirmedBlocks: 20},
		{ID: 80001, Name: "Polygon Mumbai (Testnet)", Symbol: "MATIC", BlockTime: 2, ConfirmedBlocks: 5, Testnet: true},
	}
}

func defaultTokens() []Token {
	return []Token{
		{
			Address:  "0xA0b86a33E6441C4CB2C62C7E85a3bF1d3D7a5e40",
			Name:     "Wrapped Bitcoin",
			Symbol:   "WBTC",
			Decimals: 8,
			Chains:   []int64{1, 137, 56, 42161},
		},
		{
			Address:  "0xdAC17F958D2ee523a2206206994597C13D831ec7",
			Name:     "Tether USD",
			Symbol:   "USDT",
			Decimals: 6,
			Chains:   []int64{1, 137, 56, 42161},
		},
		{
			Address:  "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
			Name:     "USD Coin",
			Symbol:   "USDC",
			Decimals: 6,
			Chains:   []int64{1, 137, 56, 42161},
		},
		{
			Address:  "0x0000000000000000000000000000000000000000",
			Name:     "Ethereum",
			Symbol:   "ETH",
			Decimals: 18,
			Chains:   []int64{1, 42161, 80001},
			Native:   true,
		},
		{
			Address:  "0x0000000000000000000000000000000000001010",
			Name:     "Matic Token",
			Symbol:   "MATIC",
			Decimals: 18,
			Chains:   []int64{137, 80001},
			Native:   true,
		},
	}
}
