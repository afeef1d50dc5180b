package prestashop

import "strings"

const DefaultProductName = "Unknown"

// NormalizeLocalizedText resolves a possibly multi-language field to one
// string. Scalars are returned as-is. For a localized value the first entry
// (in document order) wins, unwrapping one nested {"value": ...} level.
// Anything else yields def.
func NormalizeLocalizedText(v TextValue, def string) string {
	if s, ok := resolveText(v); ok {
		return s
	}
	return def
}

// NormalizeReference applies the same resolution but yields nil instead of a
// default, and treats a blank reference as missing.
func NormalizeReference(v TextValue) *string {
	s, ok := resolveText(v)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func resolveText(v TextValue) (string, bool) {
	switch {
	case v.IsScalar():
		return v.scalar, true
	case v.IsLocalized():
		if len(v.entries) == 0 {
			return "", false
		}
		first := v.entries[0].Value
		if first.IsScalar() {
			return first.scalar, true
		}
		if inner, ok := first.Get("value"); ok && inner.IsScalar() {
			return inner.scalar, true
		}
	}
	return "", false
}

// CategoryIndex maps category ids to their resolved names for one run.
type CategoryIndex map[int]string

func BuildCategoryIndex(categories []Category) CategoryIndex {
	idx := make(CategoryIndex, len(categories))
	for _, cat := range categories {
		id := cat.ID.Int()
		if id == 0 {
			continue
		}
		if s, ok := resolveText(cat.Name); ok {
			idx[id] = s
		}
	}
	return idx
}

// Lookup returns nil for unknown ids; a nil index always misses.
func (idx CategoryIndex) Lookup(id int) *string {
	name, ok := idx[id]
	if !ok {
		return nil
	}
	return &name
}
