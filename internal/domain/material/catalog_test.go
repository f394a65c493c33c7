package material

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogFixture(t *testing.T) (*Catalog, *Material, *Material) {
	t.Helper()

	felt, err := NewMaterial("Felt", "", TypeSimple)
	require.NoError(t, err)
	felt.WithExternalID("1001")

	thread, err := NewMaterial("Thread", "", TypeVariable)
	require.NoError(t, err)
	thread.WithExternalID("2002")
	red, err := thread.AddVariation("Red", "", nil)
	require.NoError(t, err)
	red.WithExternalID("2002-1")

	c := NewCatalog([]Material{*felt, *thread})
	return c, felt, thread
}

func TestCatalog_FindMaterial(t *testing.T) {
	c, felt, _ := newCatalogFixture(t)

	t.Run("by local id", func(t *testing.T) {
		m, ok := c.FindMaterial(felt.ID.String())
		require.True(t, ok)
		assert.Equal(t, felt.ID, m.ID)
	})

	t.Run("by upper-case local id", func(t *testing.T) {
		m, ok := c.FindMaterial(strings.ToUpper(felt.ID.String()))
		require.True(t, ok)
		assert.Equal(t, felt.ID, m.ID)
	})

	t.Run("by external id", func(t *testing.T) {
		m, ok := c.FindMaterial("1001")
		require.True(t, ok)
		assert.Equal(t, felt.ID, m.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, ok := c.FindMaterial("9999")
		assert.False(t, ok)
	})
}

func TestCatalog_NormalizeID(t *testing.T) {
	c, felt, thread := newCatalogFixture(t)

	assert.Equal(t, felt.ID.String(), c.NormalizeID("1001"))
	assert.Equal(t, felt.ID.String(), c.NormalizeID(felt.ID.String()))
	assert.Equal(t, thread.ID.String(), c.NormalizeID("2002"))
	assert.Equal(t, "orphan", c.NormalizeID("orphan"))
}

func TestCatalog_NormalizeIDIsIdempotent(t *testing.T) {
	c, felt, thread := newCatalogFixture(t)

	for _, id := range []string{"1001", "2002", felt.ID.String(), thread.ID.String(), "orphan", ""} {
		once := c.NormalizeID(id)
		assert.Equal(t, once, c.NormalizeID(once), "id %q", id)
	}
}

func TestCatalog_NormalizeVariationID(t *testing.T) {
	c, _, _ := newCatalogFixture(t)
	thread, ok := c.FindMaterial("2002")
	require.True(t, ok)
	redID := thread.Variations[0].ID.String()

	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, c.NormalizeVariationID(thread, nil))
	})

	t.Run("external variation id resolves to local", func(t *testing.T) {
		ext := "2002-1"
		got := c.NormalizeVariationID(thread, &ext)
		require.NotNil(t, got)
		assert.Equal(t, redID, *got)
	})

	t.Run("local variation id stays local", func(t *testing.T) {
		got := c.NormalizeVariationID(thread, &redID)
		require.NotNil(t, got)
		assert.Equal(t, redID, *got)
	})

	t.Run("unknown variation id is returned unchanged", func(t *testing.T) {
		unknown := "gone"
		got := c.NormalizeVariationID(thread, &unknown)
		require.NotNil(t, got)
		assert.Equal(t, "gone", *got)
	})
}

func TestCatalog_IncludesInactiveMaterials(t *testing.T) {
	m, _ := NewMaterial("Old stock", "", TypeSimple)
	m.Deactivate()

	c := NewCatalog([]Material{*m})
	_, ok := c.FindMaterial(m.ID.String())
	assert.True(t, ok)
}
