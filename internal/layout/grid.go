// Package layout computes grid arrangements for a set of image panels.
package layout

import (
	"fmt"
	"math"
)

// Option is one rows-by-columns arrangement.
type Option struct {
	Rows int
	Cols int
}

// Label returns the human-readable form shown in the layout selector.
func (o Option) Label() string {
	switch {
	case o.Rows == 1:
		return fmt.Sprintf("1×%d (Horizontal)", o.Cols)
	case o.Cols == 1:
		return fmt.Sprintf("%d×1 (Vertical)", o.Rows)
	default:
		return fmt.Sprintf("%d×%d (Grid)", o.Rows, o.Cols)
	}
}

// Cells returns the number of grid cells, which may exceed the panel
// count for near-square arrangements of prime counts.
func (o Option) Cells() int { return o.Rows * o.Cols }

// Options returns all sensible arrangements for the given panel count,
// most square first. Exact divisor pairs come from the count itself; for
// prime counts, near-square arrangements with an empty trailing cell are
// added so five panels can still form a 2x3 grid.
func Options(panels int) []Option {
	if panels <= 0 {
		return nil
	}

	var options []Option
	for rows := 1; rows <= panels; rows++ {
		if panels%rows == 0 {
			options = append(options, Option{Rows: rows, Cols: panels / rows})
		}
	}

	if len(options) == 2 && panels > 2 {
		root := int(math.Sqrt(float64(panels)))
		for rows := root; rows <= root+1; rows++ {
			cols := (panels + rows - 1) / rows
			candidate := Option{Rows: rows, Cols: cols}
			if candidate.Cells() >= panels && !contains(options, candidate) {
				options = append(options, candidate)
			}
		}
	}

	sortBySquareness(options)
	return options
}

// Default returns the horizontal 1xN arrangement, the startup layout.
func Default(panels int) Option {
	if panels <= 0 {
		return Option{Rows: 1, Cols: 1}
	}
	return Option{Rows: 1, Cols: panels}
}

// CellOf returns the grid cell of panel index i under an arrangement,
// filling rows left to right.
func (o Option) CellOf(i int) (row, col int) {
	if o.Cols <= 0 {
		return 0, i
	}
	return i / o.Cols, i % o.Cols
}

func contains(options []Option, o Option) bool {
	for _, existing := range options {
		if existing == o {
			return true
		}
	}
	return false
}

// sortBySquareness orders options by |rows-cols| ascending, keeping the
// original order among ties. Insertion sort; the list never exceeds a
// handful of entries.
func sortBySquareness(options []Option) {
	for i := 1; i < len(options); i++ {
		for j := i; j > 0 && skew(options[j]) < skew(options[j-1]); j-- {
			options[j], options[j-1] = options[j-1], options[j]
		}
	}
}

func skew(o Option) int {
	d := o.Rows - o.Cols
	if d < 0 {
		return -d
	}
	return d
}
