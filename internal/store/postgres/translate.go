package postgres

// translate.go turns a query plan into SQL over the dataset_rows JSONB
// layout. Column names are always passed as arguments to the ->> operator,
// never interpolated, so user-named columns cannot inject SQL.

import (
	"fmt"
	"strings"

	"github.com/csvgrid/csvgrid/internal/query"
	"github.com/csvgrid/csvgrid/internal/schema"
)

// Statement is a translated plan: one query for the page of rows and one
// for the filtered total.
type Statement struct {
	SelectSQL  string
	SelectArgs []any
	CountSQL   string
	CountArgs  []any
}

// sqlBuilder accumulates a SQL fragment with numbered placeholders.
type sqlBuilder struct {
	args []any
}

// arg registers a value and returns its placeholder.
func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

var sqlOps = map[query.Operator]string{
	query.OpEquals:    "=",
	query.OpNotEquals: "<>",
	query.OpGreater:   ">",
	query.OpLess:      "<",
	query.OpGreaterEq: ">=",
	query.OpLessEq:    "<=",
}

// translate renders the plan against one dataset's rows.
func translate(datasetID string, plan *query.Plan) Statement {
	b := &sqlBuilder{}

	where := []string{fmt.Sprintf("dataset_id = %s", b.arg(datasetID))}

	for _, cond := range plan.And {
		where = append(where, b.condition(cond))
	}
	if len(plan.Or) > 0 {
		parts := make([]string, len(plan.Or))
		for i, cond := range plan.Or {
			parts[i] = b.condition(cond)
		}
		where = append(where, "("+strings.Join(parts, " OR ")+")")
	}

	whereSQL := strings.Join(where, " AND ")

	countSQL := "SELECT count(*) FROM dataset_rows WHERE " + whereSQL
	countArgs := append([]any(nil), b.args...)

	var sb strings.Builder
	sb.WriteString("SELECT row_num, data FROM dataset_rows WHERE ")
	sb.WriteString(whereSQL)
	sb.WriteString(" ORDER BY ")
	for _, key := range plan.Sort {
		dir := "ASC"
		if key.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&sb, "%s %s NULLS LAST, ", b.sortExpr(key), dir)
	}
	sb.WriteString("row_num")
	fmt.Fprintf(&sb, " LIMIT %s OFFSET %s", b.arg(plan.Limit), b.arg(plan.Offset))

	return Statement{
		SelectSQL:  sb.String(),
		SelectArgs: b.args,
		CountSQL:   countSQL,
		CountArgs:  countArgs,
	}
}

// nullExpr matches the uniform null definition: key absent, JSON null,
// blank text, or the literal word "null".
func (b *sqlBuilder) nullExpr(column string) string {
	ph := b.arg(column)
	return fmt.Sprintf(
		"(NOT (data ? %[1]s) OR data->>%[1]s IS NULL OR btrim(data->>%[1]s) = '' OR lower(btrim(data->>%[1]s)) = 'null')",
		ph)
}

// cellExpr is the cell's text with null-equivalent values folded to SQL
// NULL, so casts never see empty strings.
func cellExpr(ph string) string {
	return fmt.Sprintf(
		"CASE WHEN data->>%[1]s IS NULL OR btrim(data->>%[1]s) = '' OR lower(btrim(data->>%[1]s)) = 'null' THEN NULL ELSE btrim(data->>%[1]s) END",
		ph)
}

// typedExpr casts the cell to a comparable SQL value. Numeric and boolean
// casts read the raw text: inference guarantees every non-null cell parses
// as the column type in forms Postgres accepts. Date and timestamp cells
// instead read the norm document, the ISO rendering written at ingest,
// because the raw layouts (day-first, dotted) are not castable under the
// server's DateStyle. Absent norm keys read as SQL NULL, so empty cells
// never reach the cast.
func typedExpr(ph string, t schema.ColumnType) string {
	cell := cellExpr(ph)
	switch t {
	case schema.TypeInteger, schema.TypeFloat:
		return "(" + cell + ")::numeric"
	case schema.TypeBoolean:
		return "(" + cell + ")::boolean"
	case schema.TypeDate, schema.TypeTimestamp:
		return "(norm->>" + ph + ")::timestamptz"
	default:
		return "lower(" + cell + ")"
	}
}

func (b *sqlBuilder) condition(cond query.Condition) string {
	switch cond.Op {
	case query.OpIsNull:
		return b.nullExpr(cond.Column)
	case query.OpIsNotNull:
		return "NOT " + b.nullExpr(cond.Column)
	}

	ph := b.arg(cond.Column)
	expr := typedExpr(ph, cond.Type)

	switch cond.Op {
	case query.OpContains:
		return fmt.Sprintf("%s LIKE %s", expr, b.arg("%"+escapeLike(cond.Value)+"%"))
	case query.OpStarts:
		return fmt.Sprintf("%s LIKE %s", expr, b.arg(escapeLike(cond.Value)+"%"))
	case query.OpEnds:
		return fmt.Sprintf("%s LIKE %s", expr, b.arg("%"+escapeLike(cond.Value)))
	}

	return fmt.Sprintf("%s %s %s", expr, sqlOps[cond.Op], b.arg(cond.Value))
}

func (b *sqlBuilder) sortExpr(key query.SortKey) string {
	return typedExpr(b.arg(key.Column), key.Type)
}

// escapeLike neutralizes LIKE metacharacters in a filter value.
func escapeLike(v any) string {
	s, _ := v.(string)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
