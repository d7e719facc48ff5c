package frame

import (
	"fmt"
	"sort"
)

// Kind is the declared value type of a column. Cells are always stored
// as nullable text; the kind decides how exporters materialize them.
type Kind int

const (
	KindString Kind = iota
	KindFloat
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	default:
		return "string"
	}
}

// Column holds one named field across all rows. A nil cell is a null.
type Column struct {
	Name  string
	Kind  Kind
	Cells []*string
}

// Frame is an ordered set of equally-sized columns. It is owned by
// exactly one pipeline stage at a time; stages hand it off, they do not
// share it.
type Frame struct {
	cols  []*Column
	index map[string]int
	rows  int
}

func New(names ...string) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(names))}
	for _, name := range names {
		if _, ok := f.index[name]; ok {
			return nil, fmt.Errorf("duplicate column: %s", name)
		}
		f.index[name] = len(f.cols)
		f.cols = append(f.cols, &Column{Name: name})
	}
	return f, nil
}

func (f *Frame) Rows() int  { return f.rows }
func (f *Frame) Width() int { return len(f.cols) }

func (f *Frame) Names() []string {
	out := make([]string, len(f.cols))
	for i, c := range f.cols {
		out[i] = c.Name
	}
	return out
}

func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Columns returns the columns in order. Callers may mutate cells but
// must not rename through this view; renames go through Rename so the
// name index stays consistent.
func (f *Frame) Columns() []*Column {
	return f.cols
}

func (f *Frame) AppendRow(cells []*string) error {
	if len(cells) != len(f.cols) {
		return fmt.Errorf("row has %d cells, frame has %d columns", len(cells), len(f.cols))
	}
	for i, c := range f.cols {
		c.Cells = append(c.Cells, cells[i])
	}
	f.rows++
	return nil
}

func (f *Frame) Cell(name string, row int) *string {
	c, ok := f.Column(name)
	if !ok || row < 0 || row >= f.rows {
		return nil
	}
	return c.Cells[row]
}

// Rename changes a column name in place. Renaming onto an existing
// column is refused so the name index stays a bijection.
func (f *Frame) Rename(old, new string) error {
	if old == new {
		return nil
	}
	i, ok := f.index[old]
	if !ok {
		return fmt.Errorf("no such column: %s", old)
	}
	if _, exists := f.index[new]; exists {
		return fmt.Errorf("rename %s: column %s already exists", old, new)
	}
	delete(f.index, old)
	f.index[new] = i
	f.cols[i].Name = new
	return nil
}

func (f *Frame) SetKind(name string, kind Kind) bool {
	c, ok := f.Column(name)
	if !ok {
		return false
	}
	c.Kind = kind
	return true
}

// AddNullColumn appends a column of all-null cells.
func (f *Frame) AddNullColumn(name string) error {
	if _, ok := f.index[name]; ok {
		return fmt.Errorf("column already exists: %s", name)
	}
	f.index[name] = len(f.cols)
	f.cols = append(f.cols, &Column{Name: name, Cells: make([]*string, f.rows)})
	return nil
}

// Select returns a copy of the frame projected to the given columns, in
// the given order. Cell slices are copied so the projection is safe to
// hand off independently of the source.
func (f *Frame) Select(names []string) (*Frame, error) {
	out, err := New(names...)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		src, ok := f.Column(name)
		if !ok {
			return nil, fmt.Errorf("no such column: %s", name)
		}
		dst, _ := out.Column(name)
		dst.Kind = src.Kind
		dst.Cells = make([]*string, len(src.Cells))
		copy(dst.Cells, src.Cells)
	}
	out.rows = f.rows
	return out, nil
}

// Filter returns a new frame containing the rows for which keep is
// true, preserving row order.
func (f *Frame) Filter(keep func(row int) bool) *Frame {
	out, _ := New(f.Names()...)
	for i, c := range f.cols {
		out.cols[i].Kind = c.Kind
	}
	for row := 0; row < f.rows; row++ {
		if !keep(row) {
			continue
		}
		for i, c := range f.cols {
			out.cols[i].Cells = append(out.cols[i].Cells, c.Cells[row])
		}
		out.rows++
	}
	return out
}

// Concat stacks frames row-wise. Every frame must carry the same column
// set; order may differ, the result uses the first frame's order and
// kinds.
func Concat(frames []*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return New()
	}
	names := frames[0].Names()
	for fi, f := range frames[1:] {
		if !sameColumnSet(names, f.Names()) {
			return nil, fmt.Errorf("frame %d column set differs from first frame", fi+1)
		}
	}
	out, err := New(names...)
	if err != nil {
		return nil, err
	}
	for i, name := range names {
		src, _ := frames[0].Column(name)
		out.cols[i].Kind = src.Kind
	}
	for _, f := range frames {
		for i, name := range names {
			src, _ := f.Column(name)
			out.cols[i].Cells = append(out.cols[i].Cells, src.Cells...)
		}
		out.rows += f.rows
	}
	return out, nil
}

func sameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Str is a convenience for building cell values.
func Str(v string) *string { return &v }

// Equal reports whether two frames carry the same columns, kinds,
// values and null positions, in the same order.
func (f *Frame) Equal(other *Frame) bool {
	if other == nil || f.rows != other.rows || len(f.cols) != len(other.cols) {
		return false
	}
	for i, c := range f.cols {
		oc := other.cols[i]
		if c.Name != oc.Name || c.Kind != oc.Kind {
			return false
		}
		for row := range c.Cells {
			a, b := c.Cells[row], oc.Cells[row]
			if (a == nil) != (b == nil) {
				return false
			}
			if a != nil && *a != *b {
				return false
			}
		}
	}
	return true
}
