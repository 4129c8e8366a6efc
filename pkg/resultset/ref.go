package resultset

import (
	"strconv"
	"strings"
)

// ColumnRef identifies a column either by 1-based index or by name.
type ColumnRef struct {
	index  int
	name   string
	byName bool
}

// Index references the column at the 1-based position i.
func Index(i int) ColumnRef {
	return ColumnRef{index: i}
}

// Name references the first column whose name matches s, ignoring case.
func Name(s string) ColumnRef {
	return ColumnRef{name: s, byName: true}
}

func (r ColumnRef) String() string {
	if r.byName {
		return r.name
	}
	return "#" + strconv.Itoa(r.index)
}

// resolve maps a reference to a 1-based index within schema.
func resolve(schema Schema, ref ColumnRef) (int, error) {
	if ref.byName {
		return findColumn(schema, ref.name)
	}
	if ref.index < 1 || ref.index > len(schema) {
		return 0, &ColumnIndexError{Index: ref.index, Count: len(schema)}
	}
	return ref.index, nil
}

func findColumn(schema Schema, name string) (int, error) {
	for i, col := range schema {
		if strings.EqualFold(col.Name, name) {
			return i + 1, nil
		}
	}
	return 0, &ColumnNotFoundError{Name: name}
}
