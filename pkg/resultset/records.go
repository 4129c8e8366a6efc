package resultset

import "iter"

// ToArray returns one record per row, in row order, with values converted as
// GetObject would. The cursor is walked from before the first row and put
// back where it was before the call, so ToArray can be called repeatedly.
// WasNull is left untouched.
func (c *Cursor) ToArray() ([]Record, error) {
	saved := c.pos
	defer func() { c.pos = saved }()

	out := make([]Record, 0, len(c.rows))
	c.BeforeFirst()
	for c.Next() {
		rec, err := c.record(c.pos)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Records iterates over the rows as records. Unlike ToArray, it resets the
// cursor before the first row when iteration starts and leaves it after the
// last row once every record has been consumed. Iteration stops at the
// first conversion error, which is yielded with a nil record.
//
// Records walks the snapshot with its own index; the cursor position is only
// touched at the start and at the end of a complete iteration.
func (c *Cursor) Records() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		c.BeforeFirst()
		for i := range c.rows {
			rec, err := c.record(i)
			if !yield(rec, err) || err != nil {
				return
			}
		}
		c.AfterLast()
	}
}

// record converts row i. When a name appears more than once the first
// column wins, matching FindColumn.
func (c *Cursor) record(i int) (Record, error) {
	row := c.rows[i]
	rec := make(Record, len(c.schema))
	for j, col := range c.schema {
		if j >= len(row) {
			return nil, &ColumnIndexError{Index: j + 1, Count: len(row)}
		}
		if _, dup := rec[col.Name]; dup {
			continue
		}
		v, err := Coerce(col.Type, row[j])
		if err != nil {
			return nil, withIndex(err, j+1)
		}
		rec[col.Name] = v
	}
	return rec, nil
}
