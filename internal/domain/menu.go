package domain

import "slices"

const (
	// Pinned category names; see SortedMenu.
	categoryHotEntrees = "Hot Traditional Station - Entrees"
	categoryHotSides   = "Hot Traditional Station - Sides"

	// generalCategory holds a location's diningItems when no event carries a menu.
	generalCategory = "General"
)

// MenuItem is a single named dish.
type MenuItem struct {
	Name    string `json:"name" yaml:"name"`
	Healthy bool   `json:"healthy" yaml:"healthy"`
}

// MenuCategory is one station or section of a menu.
type MenuCategory struct {
	Name  string     `json:"category" yaml:"category"`
	Items []MenuItem `json:"items" yaml:"items"`
}

// Menu is an ordered mapping from category name to items. Order is the order
// categories appeared in the source.
type Menu []MenuCategory

// CategoryItems is one (category, item names) pair yielded by MenuIterable.
type CategoryItems struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// Items returns the items listed under category, or nil when it is absent.
func (m Menu) Items(category string) []MenuItem {
	for _, c := range m {
		if c.Name == category {
			return c.Items
		}
	}
	return nil
}

// Categories lists the category names in order.
func (m Menu) Categories() []string {
	out := make([]string, 0, len(m))
	for _, c := range m {
		out = append(out, c.Name)
	}
	return out
}

// MenuIterable flattens a menu into (category, item names) pairs in menu order.
func MenuIterable(m Menu) []CategoryItems {
	out := make([]CategoryItems, 0, len(m))
	for _, c := range m {
		names := make([]string, 0, len(c.Items))
		for _, item := range c.Items {
			names = append(names, item.Name)
		}
		out = append(out, CategoryItems{Category: c.Name, Items: names})
	}
	return out
}

// SortedMenu returns a copy of m with the hot traditional entrees first and
// the hot traditional sides second. Every other category compares equal, so
// the sort must stay stable to keep their feed order.
func SortedMenu(m Menu) Menu {
	out := slices.Clone(m)
	slices.SortStableFunc(out, func(a, b MenuCategory) int {
		return categoryRank(a.Name) - categoryRank(b.Name)
	})
	return out
}

func categoryRank(name string) int {
	switch name {
	case categoryHotEntrees:
		return 0
	case categoryHotSides:
		return 1
	default:
		return 2
	}
}

// mergeMenus appends categories of b to a, concatenating items when a
// category name repeats.
func mergeMenus(a, b Menu) Menu {
	out := slices.Clone(a)
	for _, c := range b {
		idx := slices.IndexFunc(out, func(x MenuCategory) bool { return x.Name == c.Name })
		if idx < 0 {
			out = append(out, MenuCategory{Name: c.Name, Items: slices.Clone(c.Items)})
			continue
		}
		out[idx].Items = append(slices.Clone(out[idx].Items), c.Items...)
	}
	return out
}
