package gormfilter

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/utils"

	"github.com/theplant/gqlwhere/filter"
)

// predicate is one comparison ready to be attached to a surface.
type predicate struct {
	expr    clause.Expression
	negated bool
}

var comparisonSQL = map[filter.Operator]string{
	filter.OpIs:    "=",
	filter.OpNot:   "<>",
	filter.OpLt:    "<",
	filter.OpLte:   "<=",
	filter.OpGt:    ">",
	filter.OpGte:   ">=",
	filter.OpIn:    "IN",
	filter.OpNotIn: "NOT IN",
}

// column leaves identifier resolution to gorm: plain and dotted names are quoted,
// anything else (count(*), lower(email)) is written as is.
func column(key string) clause.Column {
	fields := strings.FieldsFunc(key, utils.IsValidDBNameChar)
	return clause.Column{Name: key, Raw: len(fields) != 1}
}

func (c *compiler) predicate(key string, op filter.Operator, operand any) (*predicate, error) {
	operand = normalize(operand)

	if op.LongRenderable() && c.cfg.field(key).RenderAsLongs {
		if p, ok := c.longPredicate(key, op, operand); ok {
			return p, nil
		}
	}

	col := column(key)
	switch op {
	case filter.OpIs:
		return &predicate{expr: clause.Eq{Column: col, Value: operand}}, nil
	case filter.OpNot:
		return &predicate{expr: clause.Eq{Column: col, Value: operand}, negated: true}, nil
	case filter.OpIn, filter.OpNotIn:
		values, err := sequence(operand)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s values for field %q", op, key)
		}
		return &predicate{expr: clause.IN{Column: col, Values: values}, negated: op == filter.OpNotIn}, nil
	case filter.OpLt:
		return &predicate{expr: clause.Lt{Column: col, Value: operand}}, nil
	case filter.OpLte:
		return &predicate{expr: clause.Lte{Column: col, Value: operand}}, nil
	case filter.OpGt:
		return &predicate{expr: clause.Gt{Column: col, Value: operand}}, nil
	case filter.OpGte:
		return &predicate{expr: clause.Gte{Column: col, Value: operand}}, nil
	case filter.OpContains, filter.OpNotContains,
		filter.OpStartsWith, filter.OpNotStartsWith,
		filter.OpEndsWith, filter.OpNotEndsWith:
		return &predicate{expr: ilike(col, op, operand)}, nil
	case filter.OpContainsDate:
		d := dateText(operand)
		if d == "" {
			return nil, errors.Wrapf(ErrMalformedFilter, "%s for field %q needs a date", op, key)
		}
		return &predicate{expr: rangeExpr(col, "@>", d, d)}, nil
	case filter.OpOverlapsDateRange, filter.OpContainsDateRange:
		var r struct {
			StartDate any `json:"startDate"`
			EndDate   any `json:"endDate"`
		}
		if err := filter.DecodeOperand(operand, &r); err != nil {
			return nil, errors.Wrapf(err, "invalid %s value for field %q", op, key)
		}
		start, end := dateText(r.StartDate), dateText(r.EndDate)
		if start == "" || end == "" {
			return nil, errors.Wrapf(ErrMalformedFilter, "%s for field %q needs startDate and endDate", op, key)
		}
		sqlOp := "@>"
		if op == filter.OpOverlapsDateRange {
			sqlOp = "&&"
		}
		return &predicate{expr: rangeExpr(col, sqlOp, start, end)}, nil
	case filter.OpBetween, filter.OpNotBetween:
		var r struct {
			Start any `json:"start"`
			End   any `json:"end"`
		}
		if err := filter.DecodeOperand(operand, &r); err != nil {
			return nil, errors.Wrapf(err, "invalid %s value for field %q", op, key)
		}
		sql := "? BETWEEN ? AND ?"
		if op == filter.OpNotBetween {
			sql = "? NOT BETWEEN ? AND ?"
		}
		return &predicate{expr: clause.Expr{SQL: sql, Vars: []any{col, normalize(r.Start), normalize(r.End)}}}, nil
	case filter.OpNotNull:
		return &predicate{expr: clause.Neq{Column: col, Value: nil}}, nil
	}
	return nil, errors.Wrapf(ErrUnknownOperator, "%s for field %q", op, key)
}

func ilike(col clause.Column, op filter.Operator, operand any) clause.Expression {
	text := fmt.Sprint(operand)
	var pattern string
	switch op {
	case filter.OpContains, filter.OpNotContains:
		pattern = "%" + text + "%"
	case filter.OpStartsWith, filter.OpNotStartsWith:
		pattern = text + "%"
	default:
		pattern = "%" + text
	}
	sql := "? ILIKE ?"
	if strings.HasPrefix(string(op), "not_") {
		sql = "? NOT ILIKE ?"
	}
	return clause.Expr{SQL: sql, Vars: []any{col, pattern}}
}

func rangeExpr(col clause.Column, sqlOp, start, end string) clause.Expression {
	return clause.Expr{SQL: "? " + sqlOp + " ?", Vars: []any{col, "[" + start + "," + end + "]"}}
}

// longPredicate renders op with integer literals. It reports false when the
// operand is not all digits so the caller falls back to the parameterized form.
func (c *compiler) longPredicate(key string, op filter.Operator, operand any) (*predicate, bool) {
	var literal string
	if op.Multi() {
		items, err := sequence(operand)
		if err != nil || len(items) == 0 {
			return nil, false
		}
		digits := make([]string, len(items))
		for i, item := range items {
			d, ok := digitText(item)
			if !ok {
				return nil, false
			}
			digits[i] = d
		}
		literal = "(" + strings.Join(digits, ",") + ")"
	} else {
		d, ok := digitText(operand)
		if !ok {
			return nil, false
		}
		literal = d
	}
	return &predicate{expr: clause.Expr{SQL: c.keyName(key) + " " + comparisonSQL[op] + " " + literal}}, true
}

// keyName resolves the column identifier of the raw literal path.
func (c *compiler) keyName(key string) string {
	if name := c.cfg.field(key).Name; name != "" {
		return name
	}
	if c.cfg.ColumnFormatter != nil {
		return c.db.Statement.Quote(c.cfg.ColumnFormatter(key))
	}
	return key
}

func digitText(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		s = fmt.Sprint(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return "", false
	}
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}

func sequence(operand any) ([]any, error) {
	if operand == nil {
		return nil, errors.New("expected a list, got nil")
	}
	if items, ok := operand.([]any); ok {
		return lo.Map(items, func(item any, _ int) any { return normalize(item) }), nil
	}
	rv := reflect.ValueOf(operand)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.Errorf("expected a list, got %T", operand)
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = normalize(rv.Index(i).Interface())
	}
	return items, nil
}

// normalize turns decoded JSON numbers into Go numbers the driver can bind.
func normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func dateText(v any) string {
	switch t := v.(type) {
	case filter.Date:
		return t.String()
	case time.Time:
		return t.Format(time.DateOnly)
	case *time.Time:
		if t != nil {
			return t.Format(time.DateOnly)
		}
		return ""
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
