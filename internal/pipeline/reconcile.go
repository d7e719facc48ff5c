package pipeline

import (
	"fmt"

	"percances/internal"
	"percances/internal/frame"
)

// CommonColumns returns the set of columns present in every frame, in
// the first frame's column order. Set intersection is order-independent;
// pinning the first frame's order keeps the unified table deterministic.
func CommonColumns(frames []*frame.Frame) []string {
	if len(frames) == 0 {
		return nil
	}
	out := make([]string, 0, frames[0].Width())
	for _, name := range frames[0].Names() {
		inAll := true
		for _, f := range frames[1:] {
			if !f.Has(name) {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, name)
		}
	}
	return out
}

// Unify projects every frame onto the common column set and
// concatenates them, preserving row order within each frame and frame
// order as given. The returned RowCountReport is a diagnostic, not a
// gate: a total that differs from the sum of the inputs points at an
// upstream aliasing or projection bug worth fixing, but is not worth
// halting an export over.
func Unify(frames []*frame.Frame) (*frame.Frame, internal.RowCountReport, error) {
	common := CommonColumns(frames)
	if len(frames) > 0 && len(common) == 0 {
		return nil, internal.RowCountReport{}, fmt.Errorf("no columns common to all %d tables", len(frames))
	}

	expected := 0
	projected := make([]*frame.Frame, 0, len(frames))
	for i, f := range frames {
		expected += f.Rows()
		p, err := f.Select(common)
		if err != nil {
			return nil, internal.RowCountReport{}, fmt.Errorf("project table %d: %w", i, err)
		}
		projected = append(projected, p)
	}

	unified, err := frame.Concat(projected)
	if err != nil {
		return nil, internal.RowCountReport{}, err
	}
	return unified, internal.RowCountReport{Expected: expected, Actual: unified.Rows()}, nil
}
