package provider

import "strings"

// FilterModels returns the models containing query, case-insensitively.
// An empty query returns every model.
func FilterModels(models []string, query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]string(nil), models...)
	}

	var out []string
	for _, m := range models {
		if strings.Contains(strings.ToLower(m), q) {
			out = append(out, m)
		}
	}
	return out
}

// DefaultModel returns the first cached model of p.
func DefaultModel(p Provider) (string, bool) {
	if len(p.Models) == 0 {
		return "", false
	}
	return p.Models[0], true
}

// AnyConfigured reports whether at least one provider has its required fields set.
func (r *Registry) AnyConfigured() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if r.specs[name].IsConfigured(r.providers[name].Credentials) {
			return true
		}
	}
	return false
}

// AnyEnabled reports whether at least one provider is enabled.
func (r *Registry) AnyEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if r.providers[name].Enabled {
			return true
		}
	}
	return false
}

// FirstAvailableModel returns the first enabled provider, in display order,
// that has a cached model, paired with that model.
func (r *Registry) FirstAvailableModel() (Selection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		p := r.providers[name]
		if !p.Enabled {
			continue
		}
		if model, ok := DefaultModel(*p); ok {
			return Selection{Provider: name, Model: model}, true
		}
	}
	return Selection{}, false
}
