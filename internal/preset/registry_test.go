package preset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/backtest-console/internal/models"
)

func TestDefaultCatalogue(t *testing.T) {
	r := Default()
	require.NotNil(t, r)

	assert.Equal(t, []string{"conservative", "balanced", "aggressive"}, r.IDs())
	assert.False(t, r.Has(CustomID))

	balanced, ok := r.Lookup("balanced")
	require.True(t, ok)
	assert.Equal(t, "中性策略", balanced.Name)
	assert.Equal(t, 2, balanced.Params.Strategy.MinSmartTraders)
	assert.Equal(t, 10000.0, balanced.Params.Execution.InitialEquity)
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	r := Default()

	params, ok := r.Get("aggressive")
	require.True(t, ok)
	params.Strategy.MinSmartTraders = 99
	params.Execution.FeeRateBps = 42

	again, _ := r.Get("aggressive")
	assert.Equal(t, 1, again.Strategy.MinSmartTraders)
	assert.Equal(t, 5.0, again.Execution.FeeRateBps)
}

func TestGetUnknown(t *testing.T) {
	r := Default()

	params, ok := r.Get("does-not-exist")
	assert.False(t, ok)
	assert.Equal(t, models.BacktestParams{}, params)

	_, ok = r.Get(CustomID)
	assert.False(t, ok)
}

func TestDisplayName(t *testing.T) {
	r := Default()

	tests := []struct {
		id       string
		expected *string
	}{
		{"conservative", models.StrPtr("保守策略")},
		{"balanced", models.StrPtr("中性策略")},
		{CustomID, nil},
		{"unknown", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.DisplayName(tt.id))
		})
	}
}

func TestNewRejectsInvalidCatalogues(t *testing.T) {
	tests := []struct {
		name    string
		presets []Preset
		err     error
	}{
		{"custom collision", []Preset{{ID: CustomID}}, ErrReservedID},
		{"empty id", []Preset{{ID: ""}}, ErrReservedID},
		{"duplicate", []Preset{{ID: "a"}, {ID: "a"}}, ErrDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.presets)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestListIsACopy(t *testing.T) {
	r, err := New([]Preset{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}})
	require.NoError(t, err)

	list := r.List()
	list[0].Name = "mutated"

	p, _ := r.Lookup("a")
	assert.Equal(t, "A", p.Name)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("presets: [unterminated"))
	assert.Error(t, err)
}
