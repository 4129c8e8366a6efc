package mock

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
)

// Supported statements:
//
//	SELECT <* | col, ...> FROM <chip> [WHERE <condition>] [LIMIT <n>]
//
// The condition uses SQL comparison operators (=, <>, <, <=, >, >=),
// AND/OR/NOT, IS [NOT] NULL and like(column, 'pattern'). It is evaluated
// with expr against the coerced values of each row; a row whose condition
// cannot be evaluated, such as a comparison with NULL, does not match.
var selectRe = regexp.MustCompile(`(?is)^\s*select\s+(.+?)\s+from\s+([A-Za-z_][\w.\-]*)(?:\s+where\s+(.+?))?(?:\s+limit\s+(\d+))?\s*;?\s*$`)

type query struct {
	columns []string // nil selects every column
	table   string
	where   string
	limit   int // negative means no limit
}

func parseQuery(sql string) (*query, error) {
	m := selectRe.FindStringSubmatch(sql)
	if m == nil {
		return nil, fmt.Errorf("unsupported statement %q", strings.TrimSpace(sql))
	}
	q := &query{table: m[2], where: strings.TrimSpace(m[3]), limit: -1}
	if list := strings.TrimSpace(m[1]); list != "*" {
		for _, col := range strings.Split(list, ",") {
			col = strings.TrimSpace(col)
			if col == "" {
				return nil, fmt.Errorf("empty column in select list %q", list)
			}
			q.columns = append(q.columns, col)
		}
	}
	if m[4] != "" {
		n, err := strconv.Atoi(m[4])
		if err != nil {
			return nil, fmt.Errorf("invalid limit %q", m[4])
		}
		q.limit = n
	}
	return q, nil
}

func (q *query) run(ctx context.Context, schema resultset.Schema, rows []resultset.Row) (*Entry, error) {
	proj, err := q.projection(schema)
	if err != nil {
		return nil, err
	}
	var prog *vm.Program
	if q.where != "" {
		if prog, err = compileWhere(q.where, schema); err != nil {
			return nil, err
		}
	}

	out := &Entry{Schema: make(resultset.Schema, len(proj)), Rows: []resultset.Row{}}
	for i, idx := range proj {
		out.Schema[i] = schema[idx]
	}
	for i, row := range rows {
		if q.limit >= 0 && len(out.Rows) >= q.limit {
			break
		}
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if prog != nil {
			ok, err := matches(prog, schema, row)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			if !ok {
				continue
			}
		}
		projected := make(resultset.Row, len(proj))
		for j, idx := range proj {
			projected[j] = row[idx]
		}
		out.Rows = append(out.Rows, projected)
	}
	return out, nil
}

func (q *query) projection(schema resultset.Schema) ([]int, error) {
	if q.columns == nil {
		idx := make([]int, len(schema))
		for i := range idx {
			idx[i] = i
		}
		return idx, nil
	}
	lookup := resultset.New(schema, nil)
	idx := make([]int, len(q.columns))
	for i, name := range q.columns {
		n, err := lookup.FindColumn(name)
		if err != nil {
			return nil, err
		}
		idx[i] = n - 1
	}
	return idx, nil
}

func compileWhere(where string, schema resultset.Schema) (*vm.Program, error) {
	env := make(map[string]any, len(schema))
	for _, col := range schema {
		env[col.Name] = placeholder(col.Type)
	}
	prog, err := expr.Compile(translateWhere(where),
		expr.Env(env),
		expr.AsBool(),
		expr.Function("like", func(params ...any) (any, error) {
			s, ok1 := params[0].(string)
			pattern, ok2 := params[1].(string)
			if !ok1 || !ok2 {
				return false, nil
			}
			return like(s, pattern), nil
		}, new(func(string, string) bool)),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid WHERE clause: %w", err)
	}
	return prog, nil
}

// placeholder gives the compiler a value of the type Coerce produces for
// tag. Null cells still arrive as nil when the program runs.
func placeholder(tag string) any {
	switch tag {
	case resultset.TypeInt32, resultset.TypeInt64:
		return int64(0)
	case resultset.TypeFloat32, resultset.TypeFloat64:
		return float64(0)
	case resultset.TypeBoolean:
		return false
	default:
		return ""
	}
}

// matches evaluates prog for one row. Cells that fail coercion are an error;
// evaluation failures count as no match.
func matches(prog *vm.Program, schema resultset.Schema, row resultset.Row) (bool, error) {
	env := make(map[string]any, len(schema))
	for i, col := range schema {
		v, err := resultset.Coerce(col.Type, row[i])
		if err != nil {
			var convErr *resultset.ConversionError
			if errors.As(err, &convErr) {
				convErr.Index = i + 1
			}
			return false, err
		}
		env[col.Name] = v
	}
	out, err := expr.Run(prog, env)
	if err != nil {
		return false, nil
	}
	ok, _ := out.(bool)
	return ok, nil
}

// translateWhere rewrites SQL operators and keywords into expr syntax,
// leaving quoted literals untouched.
func translateWhere(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\'' || c == '"':
			j := i + 1
			for j < len(s) && s[j] != c {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			j = min(j+1, len(s))
			b.WriteString(s[i:j])
			i = j
		case c == '<' && i+1 < len(s) && s[i+1] == '>':
			b.WriteString("!=")
			i += 2
		case c == '=':
			switch {
			case i+1 < len(s) && s[i+1] == '=':
				b.WriteString("==")
				i += 2
			case i > 0 && strings.IndexByte("<>!", s[i-1]) >= 0:
				b.WriteByte('=')
				i++
			default:
				b.WriteString("==")
				i++
			}
		case isIdentStart(c):
			j := i
			for j < len(s) && isIdent(s[j]) {
				j++
			}
			word := s[i:j]
			i = j
			switch strings.ToUpper(word) {
			case "AND", "OR", "NOT", "TRUE", "FALSE":
				b.WriteString(strings.ToLower(word))
			case "NULL":
				b.WriteString("nil")
			case "IS":
				rest := strings.TrimLeft(s[i:], " \t\r\n")
				if len(rest) >= 3 && strings.EqualFold(rest[:3], "not") && (len(rest) == 3 || !isIdent(rest[3])) {
					i = len(s) - len(rest) + 3
					b.WriteString("!=")
				} else {
					b.WriteString("==")
				}
			default:
				b.WriteString(word)
			}
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || ('0' <= c && c <= '9')
}

// like matches s against a SQL LIKE pattern where % matches any run and _
// any single character.
func like(s, pattern string) bool {
	var b strings.Builder
	b.WriteString("(?s)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	re, err := regexp.Compile(b.String())
	if err != nil {
		return false
	}
	return re.MatchString(s)
}
