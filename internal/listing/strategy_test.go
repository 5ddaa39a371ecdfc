package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/grandline-guide/internal/models"
)

func TestChooseStrategy(t *testing.T) {
	tests := []struct {
		name   string
		search string
		region string
		want   Strategy
	}{
		{name: "nothing set", search: "", region: RegionAll, want: Strategy{Kind: All}},
		{name: "empty region means all", search: "", region: "", want: Strategy{Kind: All}},
		{name: "region only", search: "", region: "Asia", want: Strategy{Kind: ByRegion, Arg: "Asia"}},
		{name: "one letter is a code", search: "j", region: RegionAll, want: Strategy{Kind: ByCode, Arg: "j"}},
		{name: "three letters is a code", search: "jpn", region: RegionAll, want: Strategy{Kind: ByCode, Arg: "jpn"}},
		{name: "code is trimmed", search: "  de ", region: RegionAll, want: Strategy{Kind: ByCode, Arg: "de"}},
		{name: "four letters is a name", search: "peru", region: RegionAll, want: Strategy{Kind: ByName, Arg: "peru"}},
		{name: "name is trimmed", search: " japan  ", region: RegionAll, want: Strategy{Kind: ByName, Arg: "japan"}},
		{name: "search beats region", search: "japan", region: "Europe", want: Strategy{Kind: ByName, Arg: "japan"}},
		{name: "blank search falls back to region", search: "   ", region: "Africa", want: Strategy{Kind: ByRegion, Arg: "Africa"}},
		{name: "code length counts runes", search: "ñüé", region: RegionAll, want: Strategy{Kind: ByCode, Arg: "ñüé"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChooseStrategy(tt.search, tt.region))
		})
	}
}

func TestExecute(t *testing.T) {
	dir := newFakeDirectory()
	dir.byCode["jpn"] = models.Country{Name: "Japan"}
	dir.byName["japan"] = []models.Country{{Name: "Japan"}}
	dir.byRegion["Asia"] = []models.Country{{Name: "Japan"}, {Name: "Nepal"}}
	dir.all = []models.Country{{Name: "Japan"}, {Name: "Nepal"}, {Name: "Peru"}}

	tests := []struct {
		strategy Strategy
		want     []string
	}{
		{strategy: Strategy{Kind: ByCode, Arg: "jpn"}, want: []string{"Japan"}},
		{strategy: Strategy{Kind: ByName, Arg: "japan"}, want: []string{"Japan"}},
		{strategy: Strategy{Kind: ByRegion, Arg: "Asia"}, want: []string{"Japan", "Nepal"}},
		{strategy: Strategy{Kind: All}, want: []string{"Japan", "Nepal", "Peru"}},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.Kind.String(), func(t *testing.T) {
			got, err := Execute(context.Background(), dir, tt.strategy)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestExecute_ByCodeFailure(t *testing.T) {
	dir := newFakeDirectory()
	dir.err = errors.New("not found")

	got, err := Execute(context.Background(), dir, Strategy{Kind: ByCode, Arg: "xyz"})
	assert.Error(t, err)
	assert.Nil(t, got)
}
