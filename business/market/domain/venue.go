package domain

import (
	"strings"

	"github.com/mverab/flasharb/internal/apperror"
)

// Chain identifies the network a venue settles on.
type Chain int

// Supported chains.
const (
	ChainUnknown Chain = iota
	ChainStellar
	ChainEthereum
)

// String returns the chain name.
func (c Chain) String() string {
	switch c {
	case ChainStellar:
		return "stellar"
	case ChainEthereum:
		return "ethereum"
	default:
		return "unknown"
	}
}

// Venue identifies a trading venue. Like Asset, the set is closed.
type Venue int

// Supported venues.
const (
	VenueUnknown Venue = iota
	VenueStellarDEX
	VenueSoroswap
	VenueAquarius
	VenueUniswap
)

type venueInfo struct {
	name  string
	chain Chain
}

var venues = map[Venue]venueInfo{
	VenueStellarDEX: {name: "stellar_dex", chain: ChainStellar},
	VenueSoroswap:   {name: "soroswap", chain: ChainStellar},
	VenueAquarius:   {name: "aquarius", chain: ChainStellar},
	VenueUniswap:    {name: "uniswap", chain: ChainEthereum},
}

// String returns the canonical venue name.
func (v Venue) String() string {
	if info, ok := venues[v]; ok {
		return info.name
	}
	return "unknown"
}

// Valid reports whether v is one of the declared venues.
func (v Venue) Valid() bool {
	_, ok := venues[v]
	return ok
}

// Chain returns the network the venue settles on.
func (v Venue) Chain() Chain {
	if info, ok := venues[v]; ok {
		return info.chain
	}
	return ChainUnknown
}

// ParseVenue resolves a venue name, case-insensitively.
func ParseVenue(name string) (Venue, error) {
	for v, info := range venues {
		if strings.EqualFold(info.name, name) {
			return v, nil
		}
	}
	return VenueUnknown, apperror.New(apperror.CodeUnsupportedVenue,
		apperror.WithContextf("unknown venue %q", name))
}

// MarshalJSON encodes the venue by name, keeping persisted records stable
// across enum reordering.
func (v Venue) MarshalJSON() ([]byte, error) {
	return []byte(`"` + v.String() + `"`), nil
}

// UnmarshalJSON decodes a venue name.
func (v *Venue) UnmarshalJSON(data []byte) error {
	parsed, err := ParseVenue(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// AllVenues returns every declared venue in stable order.
func AllVenues() []Venue {
	return []Venue{VenueStellarDEX, VenueSoroswap, VenueAquarius, VenueUniswap}
}
