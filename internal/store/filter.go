package store

import (
	"fmt"
	"strings"

	"github.com/lazypower/engram/internal/apperr"
)

// FilterOp is a leaf comparison operator in the list filter expression
// language (spec §6).
type FilterOp string

const (
	OpEq         FilterOp = "eq"
	OpNeq        FilterOp = "neq"
	OpGt         FilterOp = "gt"
	OpGte        FilterOp = "gte"
	OpLt         FilterOp = "lt"
	OpLte        FilterOp = "lte"
	OpContains   FilterOp = "contains"
	OpNotContain FilterOp = "not_contains"
	OpExists     FilterOp = "exists"
)

// filterableFields are the columns/pseudo-columns a filter may reference.
// metadata.* is handled separately since it addresses into the JSON blob.
var filterableFields = map[string]string{
	"content":         "content",
	"memory_type":     "memory_type",
	"importance":      "importance",
	"workspace":       "workspace",
	"tier":            "tier",
	"lifecycle_state": "lifecycle_state",
	"created_at":      "created_at",
	"updated_at":      "updated_at",
	"salience_score":  "salience_score",
	"quality_score":   "quality_score",
	"access_count":    "access_count",
}

// FilterExpr is a node in the filter tree: either a leaf predicate
// ({field: {op: value}}) or an AND/OR combinator over child expressions.
type FilterExpr struct {
	Field    string
	Op       FilterOp
	Value    any
	And      []FilterExpr
	Or       []FilterExpr
	TagValue string // special-cased: field == "tags" uses a membership subquery
}

// compile renders a FilterExpr into a SQL boolean fragment plus its
// positional arguments.
func (f FilterExpr) compile() (string, []any, error) {
	if len(f.And) > 0 {
		return combine(f.And, " AND ")
	}
	if len(f.Or) > 0 {
		return combine(f.Or, " OR ")
	}
	if f.Field == "tags" {
		return "EXISTS (SELECT 1 FROM memory_tags mt JOIN tags t ON t.id = mt.tag_id WHERE mt.memory_id = memories.id AND t.name = ?)", []any{NormalizeTag(f.TagValue)}, nil
	}
	if strings.HasPrefix(f.Field, "metadata.") {
		key := strings.TrimPrefix(f.Field, "metadata.")
		return compileOp("json_extract(metadata, '$."+key+"')", f.Op, f.Value)
	}
	col, ok := filterableFields[f.Field]
	if !ok {
		return "", nil, apperr.New(apperr.InvalidInput, "list", "unfilterable field: "+f.Field)
	}
	return compileOp(col, f.Op, f.Value)
}

func compileOp(col string, op FilterOp, value any) (string, []any, error) {
	switch op {
	case OpEq:
		return col + " = ?", []any{value}, nil
	case OpNeq:
		return col + " != ?", []any{value}, nil
	case OpGt:
		return col + " > ?", []any{value}, nil
	case OpGte:
		return col + " >= ?", []any{value}, nil
	case OpLt:
		return col + " < ?", []any{value}, nil
	case OpLte:
		return col + " <= ?", []any{value}, nil
	case OpContains:
		return col + " LIKE ?", []any{"%" + fmt.Sprint(value) + "%"}, nil
	case OpNotContain:
		return col + " NOT LIKE ?", []any{"%" + fmt.Sprint(value) + "%"}, nil
	case OpExists:
		want, _ := value.(bool)
		if want {
			return col + " IS NOT NULL", nil, nil
		}
		return col + " IS NULL", nil, nil
	default:
		return "", nil, apperr.New(apperr.InvalidInput, "list", "unknown filter op: "+string(op))
	}
}

func combine(exprs []FilterExpr, joiner string) (string, []any, error) {
	var parts []string
	var args []any
	for _, e := range exprs {
		clause, eArgs, err := e.compile()
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, clause)
		args = append(args, eArgs...)
	}
	return "(" + strings.Join(parts, joiner) + ")", args, nil
}
