// Package grid implements deterministic cartesian expansion of
// hyperparameter value lists.
//
// Axes are ordered by name and the product is row-major, with the last
// axis varying fastest. The same grid block therefore always expands to
// the same point sequence, which keeps run numbering and history rows
// stable across re-executions.
package grid

import (
	"sort"
	"strings"
)

// Setting is one hyperparameter pinned to one value, both in their
// command-line string form.
type Setting struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Point is a full assignment of every swept axis, ordered by axis name.
// A point from an empty grid has no settings.
type Point []Setting

// Label renders the point as "name=value" pairs joined with commas.
// Returns the empty string for the empty point.
func (p Point) Label() string {
	if len(p) == 0 {
		return ""
	}
	parts := make([]string, 0, len(p))
	for _, s := range p {
		parts = append(parts, s.Name+"="+s.Value)
	}
	return strings.Join(parts, ",")
}

// Expand returns the cartesian product of the given axes as an ordered
// point list. Axis names are sorted before expansion. An empty or nil
// grid expands to a single empty point, so callers can always iterate
// the result uniformly.
func Expand(axes map[string][]string) []Point {
	names := make([]string, 0, len(axes))
	for name := range axes {
		names = append(names, name)
	}
	sort.Strings(names)

	points := []Point{{}}
	for _, name := range names {
		values := axes[name]
		next := make([]Point, 0, len(points)*len(values))
		for _, p := range points {
			for _, v := range values {
				expanded := make(Point, len(p), len(p)+1)
				copy(expanded, p)
				expanded = append(expanded, Setting{Name: name, Value: v})
				next = append(next, expanded)
			}
		}
		points = next
	}
	return points
}

// Size returns the number of points Expand would produce without
// materializing them.
func Size(axes map[string][]string) int {
	size := 1
	for _, values := range axes {
		size *= len(values)
	}
	return size
}
