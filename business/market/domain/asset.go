// Package domain contains the core market data types: assets, venues,
// price quotes and order book snapshots.
package domain

import (
	"strings"

	"github.com/mverab/flasharb/internal/apperror"
)

// Asset identifies a tradeable asset. The set is closed: values outside the
// declared constants are invalid everywhere.
type Asset int

// Supported assets.
const (
	AssetUnknown Asset = iota
	AssetXLM
	AssetUSDC
	AssetBTC
	AssetETH
	AssetAQUA
	AssetYXLM
)

var assetNames = map[Asset]string{
	AssetXLM:  "XLM",
	AssetUSDC: "USDC",
	AssetBTC:  "BTC",
	AssetETH:  "ETH",
	AssetAQUA: "AQUA",
	AssetYXLM: "yXLM",
}

// String returns the canonical symbol.
func (a Asset) String() string {
	if name, ok := assetNames[a]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether a is one of the declared assets.
func (a Asset) Valid() bool {
	_, ok := assetNames[a]
	return ok
}

// ParseAsset resolves a symbol to an Asset, case-insensitively.
func ParseAsset(symbol string) (Asset, error) {
	for a, name := range assetNames {
		if strings.EqualFold(name, symbol) {
			return a, nil
		}
	}
	return AssetUnknown, apperror.New(apperror.CodeUnsupportedAsset,
		apperror.WithContextf("unknown asset %q", symbol))
}

// MarshalJSON encodes the asset by symbol, keeping persisted records stable
// across enum reordering.
func (a Asset) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON decodes an asset symbol.
func (a *Asset) UnmarshalJSON(data []byte) error {
	parsed, err := ParseAsset(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AllAssets returns every declared asset in stable order.
func AllAssets() []Asset {
	return []Asset{AssetXLM, AssetUSDC, AssetBTC, AssetETH, AssetAQUA, AssetYXLM}
}
