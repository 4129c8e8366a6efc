// Package resultset exposes decoded query responses through a scrollable,
// JDBC-style cursor. A Cursor wraps an immutable snapshot made of a column
// schema and a grid of nullable text cells; typed accessors convert cells
// according to the column's declared type tag.
//
// Column positions are 1-based. Every scalar accessor records whether the
// cell it read was null, which callers inspect through WasNull. A Cursor is
// meant for a single owner; independent cursors may share one snapshot.
package resultset
