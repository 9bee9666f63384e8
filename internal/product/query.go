package product

import (
	"sort"
	"strings"

	"maturity/internal/stage"
)

// FilterAll selects every product.
const FilterAll = "all"

// Find returns the product with the given id.
func Find(products []Product, id string) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// ProjectNames returns the distinct product names, sorted case-insensitively.
// Names that differ only by case are listed once, using the first spelling seen.
func ProjectNames(products []Product) []string {
	seen := make(map[string]bool, len(products))
	names := []string{}
	for _, p := range products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// Filter returns the products matching filter, preserving order.
//
// The filter is "all" (or empty), a status ("ready", "blocked",
// "in-progress"), or a stage ("V1".."V5", case-insensitive). Any other value
// matches nothing.
func Filter(products []Product, filter string) []Product {
	f := strings.TrimSpace(filter)
	if f == "" || strings.EqualFold(f, FilterAll) {
		return append([]Product(nil), products...)
	}

	var match func(Product) bool
	if st := Status(strings.ToLower(f)); st.IsValid() {
		match = func(p Product) bool { return p.Status == st }
	} else if s, err := stage.Parse(f, stage.Strict); err == nil {
		match = func(p Product) bool { return p.Stage == s }
	} else {
		return []Product{}
	}

	out := []Product{}
	for _, p := range products {
		if match(p) {
			out = append(out, p)
		}
	}
	return out
}

// ByProject returns the products whose name matches project case-insensitively.
// An empty project matches every product.
func ByProject(products []Product, project string) []Product {
	project = strings.TrimSpace(project)
	if project == "" {
		return append([]Product(nil), products...)
	}
	out := []Product{}
	for _, p := range products {
		if strings.EqualFold(strings.TrimSpace(p.Name), project) {
			out = append(out, p)
		}
	}
	return out
}

// ByStage groups products by their current stage. Every pipeline stage is
// present in the result, possibly with an empty list.
func ByStage(products []Product) map[stage.Stage][]Product {
	groups := make(map[stage.Stage][]Product, len(stage.All()))
	for _, s := range stage.All() {
		groups[s] = []Product{}
	}
	for _, p := range products {
		groups[p.Stage] = append(groups[p.Stage], p)
	}
	return groups
}

// Stats summarizes a product list.
type Stats struct {
	Total          int `json:"totalProducts" yaml:"totalProducts"`
	ReadyToAdvance int `json:"readyToAdvance" yaml:"readyToAdvance"`
	Blocked        int `json:"blocked" yaml:"blocked"`
	AvgDaysInStage int `json:"avgDaysInStage" yaml:"avgDaysInStage"`
}

// Summarize computes [Stats] for products. The average days in stage is
// rounded half up and is 0 for an empty list.
func Summarize(products []Product) Stats {
	st := Stats{Total: len(products)}
	totalDays := 0
	for _, p := range products {
		switch p.Status {
		case StatusReady:
			st.ReadyToAdvance++
		case StatusBlocked:
			st.Blocked++
		}
		totalDays += p.DaysInStage
	}
	if st.Total > 0 {
		st.AvgDaysInStage = (2*totalDays + st.Total) / (2 * st.Total)
	}
	return st
}
