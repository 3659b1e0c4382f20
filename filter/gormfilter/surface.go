package gormfilter

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// surface is the predicate attachment vocabulary of one clause of the query.
// query and args follow the conventions of gorm.DB.Where.
type surface interface {
	Where(db *gorm.DB, query any, args ...any) *gorm.DB
	Or(db *gorm.DB, query any, args ...any) *gorm.DB
	Not(db *gorm.DB, query any, args ...any) (*gorm.DB, error)
	OrNot(db *gorm.DB, query any, args ...any) (*gorm.DB, error)
}

// rows attaches predicates to the WHERE clause.
type rows struct{}

func (rows) Where(db *gorm.DB, query any, args ...any) *gorm.DB {
	return db.Where(query, args...)
}

func (rows) Or(db *gorm.DB, query any, args ...any) *gorm.DB {
	return db.Or(query, args...)
}

func (rows) Not(db *gorm.DB, query any, args ...any) (*gorm.DB, error) {
	return db.Not(query, args...), nil
}

func (rows) OrNot(db *gorm.DB, query any, args ...any) (*gorm.DB, error) {
	conds := db.Statement.BuildCondition(query, args...)
	if len(conds) == 0 {
		return db, nil
	}
	return db.Or(clause.Not(conds...)), nil
}

const groupByClause = "GROUP BY"

// having attaches predicates to the HAVING clause. Negation is not available there.
type having struct{}

func (having) Where(db *gorm.DB, query any, args ...any) *gorm.DB {
	return db.Having(query, args...)
}

// Or rewrites the HAVING list into a single (existing OR new) expression, the
// way gorm.DB.Or treats WHERE.
func (having) Or(db *gorm.DB, query any, args ...any) *gorm.DB {
	conds := db.Statement.BuildCondition(query, args...)
	if len(conds) == 0 {
		return db
	}

	tx := db.Having(clause.And(conds...))
	c := tx.Statement.Clauses[groupByClause]
	groupBy, ok := c.Expression.(clause.GroupBy)
	if !ok || len(groupBy.Having) < 2 {
		return tx
	}
	last := len(groupBy.Having) - 1
	groupBy.Having = []clause.Expression{
		clause.Or(clause.And(groupBy.Having[:last]...), groupBy.Having[last]),
	}
	c.Expression = groupBy
	tx.Statement.Clauses[groupByClause] = c
	return tx
}

func (having) Not(*gorm.DB, any, ...any) (*gorm.DB, error) {
	return nil, errors.Wrap(ErrUnsupportedOperation, "NOT on HAVING")
}

func (having) OrNot(*gorm.DB, any, ...any) (*gorm.DB, error) {
	return nil, errors.Wrap(ErrUnsupportedOperation, "OR NOT on HAVING")
}

// attach joins p into db through s, with OR when disjunctive is set.
func attach(s surface, db *gorm.DB, p *predicate, disjunctive bool) (*gorm.DB, error) {
	switch {
	case p.negated && disjunctive:
		return s.OrNot(db, p.expr)
	case p.negated:
		return s.Not(db, p.expr)
	case disjunctive:
		return s.Or(db, p.expr), nil
	default:
		return s.Where(db, p.expr), nil
	}
}
