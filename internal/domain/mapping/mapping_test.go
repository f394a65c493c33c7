package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewMapping(t *testing.T) {
	t.Run("creates mapping", func(t *testing.T) {
		m, err := NewMapping("42", strPtr("43"), "mat-1", nil, 2)
		require.NoError(t, err)

		assert.Equal(t, "42", m.ProductID)
		require.NotNil(t, m.VariationID)
		assert.Equal(t, "43", *m.VariationID)
		assert.Nil(t, m.MaterialVariationID)
		assert.Equal(t, 2, m.QuantityUsed)
	})

	t.Run("blank variation becomes nil", func(t *testing.T) {
		m, err := NewMapping("42", strPtr("  "), "mat-1", strPtr(""), 1)
		require.NoError(t, err)
		assert.Nil(t, m.VariationID)
		assert.Nil(t, m.MaterialVariationID)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewMapping("42", nil, "mat-1", nil, 0)
		assert.Error(t, err)
	})

	t.Run("rejects missing ids", func(t *testing.T) {
		_, err := NewMapping("", nil, "mat-1", nil, 1)
		assert.Error(t, err)
		_, err = NewMapping("42", nil, " ", nil, 1)
		assert.Error(t, err)
	})
}

func TestMapping_Key(t *testing.T) {
	a, _ := NewMapping("42", nil, "mat-1", nil, 1)
	b, _ := NewMapping("42", nil, "mat-1", nil, 5)
	c, _ := NewMapping("42", strPtr("43"), "mat-1", nil, 1)
	d, _ := NewMapping("42", nil, "mat-1", strPtr("var-1"), 1)

	assert.Equal(t, "mat-1|null|42|null", a.Key())
	assert.Equal(t, a.Key(), b.Key(), "quantity is not part of the tuple")
	assert.NotEqual(t, a.Key(), c.Key())
	assert.NotEqual(t, a.Key(), d.Key())
}

func TestMapping_MatchesProduct(t *testing.T) {
	simple, _ := NewMapping("42", nil, "mat-1", nil, 1)
	variant, _ := NewMapping("42", strPtr("43"), "mat-1", nil, 1)

	assert.True(t, simple.MatchesProduct("42", nil))
	assert.True(t, simple.MatchesProduct("42", strPtr("")))
	assert.False(t, simple.MatchesProduct("42", strPtr("43")))
	assert.False(t, simple.MatchesProduct("41", nil))

	assert.True(t, variant.MatchesProduct("42", strPtr("43")))
	assert.False(t, variant.MatchesProduct("42", nil))
	assert.False(t, variant.MatchesProduct("42", strPtr("44")))
}

func TestMapping_UpdateQuantity(t *testing.T) {
	m, _ := NewMapping("42", nil, "mat-1", nil, 1)
	require.NoError(t, m.UpdateQuantity(3))
	assert.Equal(t, 3, m.QuantityUsed)
	assert.Error(t, m.UpdateQuantity(-1))
	assert.Equal(t, 3, m.QuantityUsed)
}

func TestVariationFilter_Matches(t *testing.T) {
	tests := []struct {
		name     string
		filter   VariationFilter
		value    *string
		expected bool
	}{
		{"any matches nil", AnyVariation(), nil, true},
		{"any matches value", AnyVariation(), strPtr("v1"), true},
		{"zero value is any", VariationFilter{}, strPtr("v1"), true},
		{"none matches nil", NoVariation(), nil, true},
		{"none rejects value", NoVariation(), strPtr("v1"), false},
		{"exact matches alias", ForVariation("v1", "ext-1"), strPtr("ext-1"), true},
		{"exact rejects other", ForVariation("v1"), strPtr("v2"), false},
		{"exact rejects nil", ForVariation("v1"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.filter.Matches(tt.value))
		})
	}
}
