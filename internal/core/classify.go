package core

import "strings"

type (
	// CategoryRule is one category with its registered store names and
	// matching keywords, in configured order.
	CategoryRule struct {
		Name     string
		Stores   []string
		Keywords []string
	}

	// Ruleset is an immutable snapshot of the classification configuration.
	// Category order matters: keyword scanning honors it.
	Ruleset struct {
		Categories      []CategoryRule
		DefaultCategory string
		AutoCategorize  bool
	}

	// RegisterStore is the follow-up command a caller applies to the
	// configuration store after committing a transaction whose store name
	// was not yet registered under its resolved category. Applying it is
	// idempotent.
	RegisterStore struct {
		Category string
		Store    string
	}
)

// Classify assigns a category to a free-text store name. Matching is
// case-insensitive on the trimmed name, in strict priority order: an exact
// registered store name wins over any keyword; keywords are scanned in
// category order, then keyword order, matching as substrings. When nothing
// matches (or auto-categorization is disabled) the default category is
// returned with matched=false.
func Classify(storeName string, rs Ruleset) (category string, matched bool) {
	if !rs.AutoCategorize {
		return rs.DefaultCategory, false
	}
	name := strings.ToLower(strings.TrimSpace(storeName))
	if name == "" {
		return rs.DefaultCategory, false
	}

	for _, c := range rs.Categories {
		for _, store := range c.Stores {
			if strings.ToLower(strings.TrimSpace(store)) == name {
				return c.Name, true
			}
		}
	}

	for _, c := range rs.Categories {
		for _, kw := range c.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(name, kw) {
				return c.Name, true
			}
		}
	}

	return rs.DefaultCategory, false
}

// Suggest classifies a store name and, when the name is not yet registered
// under the resolved category, returns the RegisterStore command the caller
// should apply so the next classification matches exactly.
func Suggest(storeName string, rs Ruleset) (category string, matched bool, followUp *RegisterStore) {
	category, matched = Classify(storeName, rs)
	store := strings.TrimSpace(storeName)
	if store == "" || category == "" {
		return category, matched, nil
	}
	if rs.HasStore(category, store) {
		return category, matched, nil
	}
	return category, matched, &RegisterStore{Category: category, Store: store}
}

// HasStore reports whether the store name is registered under the category,
// compared case-insensitively.
func (rs Ruleset) HasStore(category, store string) bool {
	store = strings.ToLower(strings.TrimSpace(store))
	for _, c := range rs.Categories {
		if c.Name != category {
			continue
		}
		for _, s := range c.Stores {
			if strings.ToLower(strings.TrimSpace(s)) == store {
				return true
			}
		}
	}
	return false
}

// CategoryNames returns the category names in configured order.
func (rs Ruleset) CategoryNames() []string {
	names := make([]string, len(rs.Categories))
	for i, c := range rs.Categories {
		names[i] = c.Name
	}
	return names
}
