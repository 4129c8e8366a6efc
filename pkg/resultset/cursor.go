package resultset

// Cursor is a scrollable view over an immutable result snapshot.
//
// The position is kept in [-1, RowCount()]: -1 is before the first row and
// RowCount() is after the last one. A new cursor starts before the first row.
//
// Every scalar accessor overwrites the flag reported by WasNull, whichever
// column it reads and whether or not the cell was null.
type Cursor struct {
	schema  Schema
	rows    []Row
	pos     int
	wasNull bool
}

// New wraps schema and rows. Neither is copied nor modified, so several
// cursors may share the same snapshot.
func New(schema Schema, rows []Row) *Cursor {
	return &Cursor{
		schema: schema,
		rows:   rows,
		pos:    -1,
	}
}

// RowCount returns the number of rows in the snapshot.
func (c *Cursor) RowCount() int {
	return len(c.rows)
}

// Next advances one row. It returns false and stays after the last row when
// no row is left.
func (c *Cursor) Next() bool {
	n := len(c.rows)
	if c.pos < n {
		c.pos++
	}
	return c.pos < n
}

// Previous moves back one row. It fails without moving when the cursor is
// on the first row or before it.
func (c *Cursor) Previous() bool {
	if c.pos <= 0 {
		return false
	}
	c.pos--
	return true
}

// First moves to the first row.
func (c *Cursor) First() bool {
	if len(c.rows) == 0 {
		return false
	}
	c.pos = 0
	return true
}

// Last moves to the last row.
func (c *Cursor) Last() bool {
	if len(c.rows) == 0 {
		return false
	}
	c.pos = len(c.rows) - 1
	return true
}

// BeforeFirst moves before the first row.
func (c *Cursor) BeforeFirst() {
	c.pos = -1
}

// AfterLast moves after the last row.
func (c *Cursor) AfterLast() {
	c.pos = len(c.rows)
}

// Absolute moves to the 1-based row n. Negative values count from the end,
// -1 being the last row. Targets outside [1, RowCount()] leave the cursor
// after the last row and return false.
func (c *Cursor) Absolute(n int) bool {
	count := len(c.rows)
	if n < 0 {
		n = count + n + 1
	}
	if n < 1 || n > count {
		c.pos = count
		return false
	}
	c.pos = n - 1
	return true
}

// Relative moves d rows from the current position. It is exactly
// Absolute(position+1+d), so it also works from either sentinel.
func (c *Cursor) Relative(d int) bool {
	return c.Absolute(c.pos + 1 + d)
}

// IsBeforeFirst reports whether the cursor is before the first row of a
// non-empty result.
func (c *Cursor) IsBeforeFirst() bool {
	return len(c.rows) > 0 && c.pos == -1
}

// IsAfterLast reports whether the cursor is after the last row of a
// non-empty result.
func (c *Cursor) IsAfterLast() bool {
	return len(c.rows) > 0 && c.pos == len(c.rows)
}

// IsFirst reports whether the cursor is on the first row.
func (c *Cursor) IsFirst() bool {
	return len(c.rows) > 0 && c.pos == 0
}

// IsLast reports whether the cursor is on the last row.
func (c *Cursor) IsLast() bool {
	return len(c.rows) > 0 && c.pos == len(c.rows)-1
}

// Row returns the 1-based number of the current row, or 0 when the cursor
// is not on a row.
func (c *Cursor) Row() int {
	if c.onRow() {
		return c.pos + 1
	}
	return 0
}

func (c *Cursor) onRow() bool {
	return c.pos >= 0 && c.pos < len(c.rows)
}

// WasNull reports whether the last scalar accessor read a null cell.
func (c *Cursor) WasNull() bool {
	return c.wasNull
}

// FindColumn returns the 1-based index of the first column named name,
// ignoring case.
func (c *Cursor) FindColumn(name string) (int, error) {
	return findColumn(c.schema, name)
}

// ColumnCount returns the number of columns in the schema.
func (c *Cursor) ColumnCount() int {
	return len(c.schema)
}

// ColumnName returns the name of the 1-based column i.
func (c *Cursor) ColumnName(i int) (string, error) {
	idx, err := resolve(c.schema, Index(i))
	if err != nil {
		return "", err
	}
	return c.schema[idx-1].Name, nil
}

// ColumnType returns the type tag of the 1-based column i.
func (c *Cursor) ColumnType(i int) (string, error) {
	idx, err := resolve(c.schema, Index(i))
	if err != nil {
		return "", err
	}
	return c.schema[idx-1].Type, nil
}

// Schema returns the columns of the snapshot. Callers must not modify it.
func (c *Cursor) Schema() Schema {
	return c.schema
}

// Grid returns the rows of the snapshot. Callers must not modify it.
func (c *Cursor) Grid() []Row {
	return c.rows
}

// cell fetches the raw cell for ref on the current row and records whether
// it was null.
func (c *Cursor) cell(ref ColumnRef) (*string, int, error) {
	if !c.onRow() {
		return nil, 0, ErrNoCurrentRow
	}
	idx, err := resolve(c.schema, ref)
	if err != nil {
		return nil, 0, err
	}
	row := c.rows[c.pos]
	if idx > len(row) {
		return nil, 0, &ColumnIndexError{Index: idx, Count: len(row)}
	}
	cell := row[idx-1]
	c.wasNull = cell == nil
	return cell, idx, nil
}

// GetString returns the raw text of the cell, or nil for a null cell.
func (c *Cursor) GetString(ref ColumnRef) (*string, error) {
	cell, _, err := c.cell(ref)
	if err != nil {
		return nil, err
	}
	return cell, nil
}

// GetInt parses the cell as a base-10 integer. Null cells read as 0.
func (c *Cursor) GetInt(ref ColumnRef) (int64, error) {
	cell, idx, err := c.cell(ref)
	if err != nil || cell == nil {
		return 0, err
	}
	v, ok := parseIntPrefix(*cell)
	if !ok {
		return 0, &ConversionError{Index: idx, Type: TypeInt64, Text: *cell}
	}
	return v, nil
}

// GetFloat parses the cell as a floating point number. Null cells read as 0.
func (c *Cursor) GetFloat(ref ColumnRef) (float64, error) {
	cell, idx, err := c.cell(ref)
	if err != nil || cell == nil {
		return 0, err
	}
	v, ok := parseFloatPrefix(*cell)
	if !ok {
		return 0, &ConversionError{Index: idx, Type: TypeFloat64, Text: *cell}
	}
	return v, nil
}

// GetDouble is an alias of GetFloat.
func (c *Cursor) GetDouble(ref ColumnRef) (float64, error) {
	return c.GetFloat(ref)
}

// GetBoolean reports whether the cell text is "true", ignoring case.
func (c *Cursor) GetBoolean(ref ColumnRef) (bool, error) {
	cell, _, err := c.cell(ref)
	if err != nil || cell == nil {
		return false, err
	}
	return parseBool(*cell), nil
}

// GetObject converts the cell using the column's declared type, see Coerce.
func (c *Cursor) GetObject(ref ColumnRef) (any, error) {
	cell, idx, err := c.cell(ref)
	if err != nil {
		return nil, err
	}
	v, err := Coerce(c.schema[idx-1].Type, cell)
	if err != nil {
		return nil, withIndex(err, idx)
	}
	return v, nil
}

func withIndex(err error, idx int) error {
	if ce, ok := err.(*ConversionError); ok {
		cp := *ce
		cp.Index = idx
		return &cp
	}
	return err
}
