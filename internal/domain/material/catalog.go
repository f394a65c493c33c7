package material

import (
	"github.com/google/uuid"
)

// Catalog is a lookup index over a set of materials that resolves references
// expressed in either id space (canonical local id or legacy external id).
//
// A Catalog is built once per operation from the current material set and
// discarded afterwards; it must not be shared across operations.
type Catalog struct {
	materials  []*Material
	byLocal    map[string]*Material
	byExternal map[string]*Material
}

// NewCatalog indexes the given materials. Inactive materials are included:
// resolution by id ignores the soft-delete flag.
func NewCatalog(materials []Material) *Catalog {
	c := &Catalog{
		materials:  make([]*Material, 0, len(materials)),
		byLocal:    make(map[string]*Material, len(materials)),
		byExternal: make(map[string]*Material, len(materials)),
	}
	for i := range materials {
		m := &materials[i]
		c.materials = append(c.materials, m)
		c.byLocal[m.ID.String()] = m
		if m.ExternalID != nil && *m.ExternalID != "" {
			c.byExternal[*m.ExternalID] = m
		}
	}
	return c
}

// Materials returns the indexed materials in input order
func (c *Catalog) Materials() []*Material {
	return c.materials
}

// FindMaterial resolves id against local ids first, then external ids.
func (c *Catalog) FindMaterial(id string) (*Material, bool) {
	if m, ok := c.byLocal[id]; ok {
		return m, true
	}
	if m, ok := c.byLocal[canonicalUUID(id)]; ok {
		return m, true
	}
	if m, ok := c.byExternal[id]; ok {
		return m, true
	}
	return nil, false
}

// NormalizeID returns the canonical local id for id, or id unchanged when it
// matches neither id space.
func (c *Catalog) NormalizeID(id string) string {
	if m, ok := c.FindMaterial(id); ok {
		return m.ID.String()
	}
	return id
}

// NormalizeVariationID resolves variationID among m's variations by local or
// external id. Nil passes through as nil; an unknown id is returned unchanged.
func (c *Catalog) NormalizeVariationID(m *Material, variationID *string) *string {
	if variationID == nil || m == nil {
		return variationID
	}
	if v, ok := FindVariation(m, *variationID); ok {
		id := v.ID.String()
		return &id
	}
	return variationID
}

// FindVariation scans m's variations for a local or external id match
func FindVariation(m *Material, id string) (*Variation, bool) {
	canonical := canonicalUUID(id)
	for i := range m.Variations {
		v := &m.Variations[i]
		local := v.ID.String()
		if local == id || local == canonical {
			return v, true
		}
		if v.ExternalID != nil && *v.ExternalID == id {
			return v, true
		}
	}
	return nil, false
}

// canonicalUUID lowercases and re-renders id when it parses as a UUID so that
// upper-case or braced forms still hit the local index.
func canonicalUUID(id string) string {
	u, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return u.String()
}
