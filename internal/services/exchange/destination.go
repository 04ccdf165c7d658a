package exchange

import (
	"github.com/hxuan190/gd-exchange/internal/domain"
	"github.com/hxuan190/gd-exchange/internal/registry"
)

// destinationKind classifies the destination of a bonding-curve sale.
type destinationKind uint8

const (
	destinationSelf destinationKind = iota + 1
	destinationReserve
	destinationUnderlying
	destinationOther
)

func (k destinationKind) String() string {
	switch k {
	case destinationSelf:
		return "self"
	case destinationReserve:
		return "reserve"
	case destinationUnderlying:
		return "underlying"
	default:
		return "other"
	}
}

// classifyDestination compares by chain and address, never by symbol.
func classifyDestination(chain *registry.Chain, to *domain.Asset) destinationKind {
	switch {
	case to.Equal(chain.Token(domain.SymbolToken)):
		return destinationSelf
	case to.Equal(chain.Token(domain.SymbolReserve)):
		return destinationReserve
	case to.Equal(chain.Token(domain.SymbolUnderlying)):
		return destinationUnderlying
	default:
		return destinationOther
	}
}
