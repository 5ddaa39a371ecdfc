// Package listing drives the country list: it picks a directory lookup from
// the search box and region filter, debounces input, paginates results and
// discards stale responses.
package listing

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/isdelr/grandline-guide/internal/models"
)

// RegionAll disables region filtering.
const RegionAll = "All"

// MaxCodeLength is the longest search text treated as a country code.
const MaxCodeLength = 3

// Regions lists the filter values offered to the user, RegionAll first.
var Regions = []string{RegionAll, "Africa", "Americas", "Asia", "Europe", "Oceania"}

// Kind selects a directory lookup.
type Kind int

const (
	All Kind = iota
	ByCode
	ByName
	ByRegion
)

func (k Kind) String() string {
	switch k {
	case ByCode:
		return "by-code"
	case ByName:
		return "by-name"
	case ByRegion:
		return "by-region"
	default:
		return "all"
	}
}

// Strategy is a lookup plus its argument.
type Strategy struct {
	Kind Kind
	Arg  string
}

// Directory is the set of lookups the listing needs. countries.Client
// implements it.
type Directory interface {
	ListAll(ctx context.Context) ([]models.Country, error)
	FindByName(ctx context.Context, name string) ([]models.Country, error)
	FindByRegion(ctx context.Context, region string) ([]models.Country, error)
	FindByCode(ctx context.Context, code string) (models.Country, error)
}

// ChooseStrategy maps the current input to a lookup. Search text wins over
// the region filter.
func ChooseStrategy(search, region string) Strategy {
	search = strings.TrimSpace(search)
	switch {
	case search != "" && utf8.RuneCountInString(search) <= MaxCodeLength:
		return Strategy{Kind: ByCode, Arg: search}
	case search != "":
		return Strategy{Kind: ByName, Arg: search}
	case region != "" && region != RegionAll:
		return Strategy{Kind: ByRegion, Arg: region}
	default:
		return Strategy{Kind: All}
	}
}

// Execute runs the lookup. A by-code hit becomes a one-element list.
func Execute(ctx context.Context, dir Directory, s Strategy) ([]models.Country, error) {
	switch s.Kind {
	case ByCode:
		c, err := dir.FindByCode(ctx, s.Arg)
		if err != nil {
			return nil, err
		}
		return []models.Country{c}, nil
	case ByName:
		return dir.FindByName(ctx, s.Arg)
	case ByRegion:
		return dir.FindByRegion(ctx, s.Arg)
	default:
		return dir.ListAll(ctx)
	}
}
