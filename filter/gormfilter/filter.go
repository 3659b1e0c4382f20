package gormfilter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/theplant/gqlwhere/filter"
)

// Scope returns a gorm scope attaching node to the query. node may be a
// filter.Node, a map[string]any or a typed filter struct.
func Scope(node any, opts ...Option) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if db == nil {
			return nil
		}
		cfg := &Config{}
		for _, opt := range opts {
			opt(cfg)
		}
		m, err := filter.ToMap(node)
		if err != nil {
			db.AddError(err)
			return db
		}
		fdb, err := Apply(db, m, cfg)
		if err != nil {
			db.AddError(err)
			return db
		}
		return fdb
	}
}

// Apply compiles node and joins it into db with AND.
func Apply(db *gorm.DB, node filter.Node, cfg *Config) (*gorm.DB, error) {
	return compile(db, node, cfg, false)
}

// ApplyOr compiles node and joins it into db with OR.
func ApplyOr(db *gorm.DB, node filter.Node, cfg *Config) (*gorm.DB, error) {
	return compile(db, node, cfg, true)
}

func compile(db *gorm.DB, node filter.Node, cfg *Config, disjunctive bool) (*gorm.DB, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if len(node) == 0 {
		return db, nil
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := filter.CheckComplexity(node, cfg.Limits); err != nil {
		return nil, err
	}

	var top surface = rows{}
	if cfg.Having {
		top = having{}
	}

	c := &compiler{db: db, cfg: cfg}
	scope, empty, err := c.node(newScope(db), node, nil)
	if err != nil {
		return nil, err
	}
	if empty {
		return db, nil
	}
	if disjunctive {
		return top.Or(db, scope), nil
	}
	return top.Where(db, scope), nil
}

// compiler walks one filter tree. The tree is always built with the row
// vocabulary on detached scopes; only the outermost attachment differs.
type compiler struct {
	db  *gorm.DB
	cfg *Config
}

func newScope(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true})
}

// node AND-joins every key of n into scope. empty reports that nothing was attached.
func (c *compiler) node(scope *gorm.DB, n filter.Node, path []string) (_ *gorm.DB, empty bool, _ error) {
	empty = true
	keys := lo.Keys(n)
	sort.Strings(keys)

	for _, key := range keys {
		value := n[key]
		if value == nil {
			continue
		}
		keyPath := append(path[:len(path):len(path)], key)

		if filter.IsStructural(key) {
			children, err := filter.AsNodes(value)
			if err != nil {
				return nil, false, errors.Wrapf(ErrMalformedFilter, "logical filter %s %s", strings.Join(keyPath, "."), err.Error())
			}
			group, groupEmpty, err := c.children(scope, children, key == filter.KeyOr, keyPath)
			if err != nil {
				return nil, false, err
			}
			if groupEmpty {
				continue
			}
			scope = rows{}.Where(scope, group)
			empty = false
			continue
		}

		ops, ok := filter.AsNode(value)
		if !ok {
			return nil, false, errors.Wrapf(ErrMalformedFilter, "field %s value should be map[string]any, got %T", strings.Join(keyPath, "."), value)
		}
		preds, err := c.field(key, ops)
		if err != nil {
			return nil, false, err
		}
		for _, p := range preds {
			if scope, err = attach(rows{}, scope, p, false); err != nil {
				return nil, false, err
			}
			empty = false
		}
	}
	return scope, empty, nil
}

// children compiles each child into one group, OR-joined when disjunctive is set.
func (c *compiler) children(scope *gorm.DB, children []filter.Node, disjunctive bool, path []string) (_ *gorm.DB, empty bool, _ error) {
	group := newScope(scope)
	empty = true
	for i, child := range children {
		childPath := append(path[:len(path):len(path)], fmt.Sprintf("[%d]", i))
		var (
			childEmpty bool
			err        error
		)
		group, childEmpty, err = c.child(group, child, disjunctive, childPath)
		if err != nil {
			return nil, false, err
		}
		empty = empty && childEmpty
	}
	return group, empty, nil
}

func (c *compiler) child(group *gorm.DB, child filter.Node, disjunctive bool, path []string) (*gorm.DB, bool, error) {
	if !disjunctive {
		return c.node(group, child, path)
	}

	// A child holding exactly one predicate is OR-joined as is; anything larger
	// is compiled into its own group so that its conjunction stays intact.
	if p, ok, err := c.single(child); err != nil {
		return nil, false, err
	} else if ok {
		group, err = attach(rows{}, group, p, true)
		return group, false, err
	}

	sub, empty, err := c.node(newScope(group), child, path)
	if err != nil || empty {
		return group, empty, err
	}
	return rows{}.Or(group, sub), false, nil
}

// single returns the predicate of a child consisting of one field with one
// recognized operator.
func (c *compiler) single(child filter.Node) (*predicate, bool, error) {
	if len(child) != 1 {
		return nil, false, nil
	}
	for key, value := range child {
		if filter.IsStructural(key) {
			return nil, false, nil
		}
		ops, ok := filter.AsNode(value)
		if !ok {
			return nil, false, nil
		}
		preds, err := c.field(key, ops)
		if err != nil || len(preds) != 1 {
			return nil, false, err
		}
		return preds[0], true, nil
	}
	return nil, false, nil
}

// field builds the predicates of one operator map in operator name order.
func (c *compiler) field(key string, ops filter.Node) ([]*predicate, error) {
	names := lo.Keys(ops)
	sort.Strings(names)

	preds := make([]*predicate, 0, len(names))
	for _, name := range names {
		op, ok := filter.ParseOperator(name)
		if !ok {
			if c.cfg.StrictOperators {
				return nil, errors.Wrapf(ErrUnknownOperator, "%s for field %q", name, key)
			}
			continue
		}
		operand := ops[name]
		if operand == nil && !op.Unary() {
			continue
		}
		p, err := c.predicate(key, op, operand)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, nil
}
