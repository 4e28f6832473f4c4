package catalog

import (
	"encoding/json"
	"sort"
	"strings"

	"affiliate-catalog/internal/domain"
)

// Hierarchy maps each category to the distinct subcategories observed among
// its products. It is derived, never stored.
type Hierarchy struct {
	tree map[string]map[string]struct{}
}

// BuildHierarchy derives the hierarchy in a single pass. Rows with an empty
// category are not navigable and are skipped.
func BuildHierarchy(pairs []domain.CategoryPair) *Hierarchy {
	h := &Hierarchy{tree: make(map[string]map[string]struct{})}
	for _, p := range pairs {
		h.add(p.Category, p.Subcategory)
	}
	return h
}

// HierarchyFromProducts derives the hierarchy from full product rows
func HierarchyFromProducts(products []domain.Product) *Hierarchy {
	h := &Hierarchy{tree: make(map[string]map[string]struct{})}
	for i := range products {
		h.add(products[i].Category, products[i].Subcategory)
	}
	return h
}

func (h *Hierarchy) add(category string, subcategory *string) {
	if strings.TrimSpace(category) == "" {
		return
	}
	subs, ok := h.tree[category]
	if !ok {
		subs = make(map[string]struct{})
		h.tree[category] = subs
	}
	if subcategory != nil && strings.TrimSpace(*subcategory) != "" {
		subs[*subcategory] = struct{}{}
	}
}

// Len returns the number of categories
func (h *Hierarchy) Len() int {
	return len(h.tree)
}

// HasCategory reports whether any product is filed under category
func (h *Hierarchy) HasCategory(category string) bool {
	_, ok := h.tree[category]
	return ok
}

// Contains reports whether subcategory has a backing product in category
func (h *Hierarchy) Contains(category, subcategory string) bool {
	subs, ok := h.tree[category]
	if !ok {
		return false
	}
	_, ok = subs[subcategory]
	return ok
}

// Categories returns the category names sorted alphabetically
func (h *Hierarchy) Categories() []string {
	out := make([]string, 0, len(h.tree))
	for c := range h.tree {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Subcategories returns the subcategories of category sorted alphabetically.
// Unknown categories yield nil.
func (h *Hierarchy) Subcategories(category string) []string {
	subs, ok := h.tree[category]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(subs))
	for s := range subs {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// CategoryNode is the presentation form of one hierarchy entry
type CategoryNode struct {
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	Subcategories []SubcategoryNode `json:"subcategories"`
}

// SubcategoryNode is the presentation form of a subcategory
type SubcategoryNode struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Nodes renders the hierarchy sorted by name, with slugs attached
func (h *Hierarchy) Nodes() []CategoryNode {
	nodes := make([]CategoryNode, 0, len(h.tree))
	for _, c := range h.Categories() {
		node := CategoryNode{Name: c, Slug: Slugify(c), Subcategories: []SubcategoryNode{}}
		for _, s := range h.Subcategories(c) {
			node.Subcategories = append(node.Subcategories, SubcategoryNode{Name: s, Slug: Slugify(s)})
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// MarshalJSON implements json.Marshaler
func (h *Hierarchy) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Nodes())
}

// UnmarshalJSON implements json.Unmarshaler so cached hierarchies round-trip
func (h *Hierarchy) UnmarshalJSON(data []byte) error {
	var nodes []CategoryNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return err
	}
	h.tree = make(map[string]map[string]struct{}, len(nodes))
	for _, n := range nodes {
		h.add(n.Name, nil)
		for _, s := range n.Subcategories {
			name := s.Name
			h.add(n.Name, &name)
		}
	}
	return nil
}
