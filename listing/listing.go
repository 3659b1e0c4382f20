package listing

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/theplant/gqlwhere/filter"
	"github.com/theplant/gqlwhere/filter/gormfilter"
)

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Request is the input of a list query.
type Request struct {
	Where filter.Node
	// Sort keys are applied in name order.
	Sort   map[string]SortDirection
	Limit  *int
	Offset *int
}

// Response is one page of a list query.
type Response[T any] struct {
	HasMore    bool
	TotalCount int
	Items      []T
}

// Find filters, counts and pages the records of db.
func Find[T any](ctx context.Context, db *gorm.DB, req *Request, opts ...Option) (*Response[T], error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	o := &Options{DefaultLimit: DefaultLimit}
	for _, opt := range opts {
		opt(o)
	}
	if req == nil {
		req = &Request{}
	}

	limit, offset, err := pageOf(req, o)
	if err != nil {
		return nil, err
	}
	orderBy, err := orderByOf(req.Sort)
	if err != nil {
		return nil, err
	}

	if db.Statement.Context != ctx {
		db = db.WithContext(ctx)
	}
	if db.Statement.Model == nil && db.Statement.Table == "" {
		var t T
		db = db.Model(t)
	}

	db, err = Where(db, req.Where, opts...)
	if err != nil {
		return nil, err
	}

	var totalCount int64
	if err := db.Session(&gorm.Session{}).Count(&totalCount).Error; err != nil {
		return nil, errors.Wrap(err, "count")
	}

	sel := db.Session(&gorm.Session{})
	if len(orderBy.Columns) > 0 {
		sel = sel.Order(orderBy)
	}
	sel = sel.Limit(limit + 1).Offset(offset)

	var items []T
	if err := sel.Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "find")
	}

	resp := &Response[T]{
		HasMore:    len(items) == limit+1,
		TotalCount: int(totalCount),
		Items:      items,
	}
	if resp.HasMore {
		resp.Items = items[:limit]
	}
	return resp, nil
}

// Where attaches node to db, sending the keys registered with WithExists
// into their EXISTS subqueries.
func Where(db *gorm.DB, node filter.Node, opts ...Option) (*gorm.DB, error) {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	if len(node) == 0 {
		return db, nil
	}

	// EXISTS subqueries have no GROUP BY, so their filters always go to WHERE.
	subCfg := &gormfilter.Config{}
	if o.Filter != nil {
		*subCfg = *o.Filter
		subCfg.Having = false
	}

	where := filter.Node(lo.Assign(map[string]any(node)))
	keys := lo.Keys(o.Exists)
	sort.Strings(keys)
	for _, key := range keys {
		value, ok := where[key]
		if !ok {
			continue
		}
		delete(where, key)

		sub, ok := filter.AsNode(value)
		if !ok {
			return nil, errors.Wrapf(gormfilter.ErrMalformedFilter, "exists filter %s should be a filter node, got %T", key, value)
		}
		if len(sub) == 0 {
			continue
		}

		ef := o.Exists[key]
		q := db.Session(&gorm.Session{NewDB: true}).Table(ef.Table).Select("1")
		if ef.Where != "" {
			q = q.Where(ef.Where, ef.Vars...)
		}
		q, err := gormfilter.Apply(q, sub, subCfg)
		if err != nil {
			return nil, errors.Wrapf(err, "exists filter %s", key)
		}
		db = db.Where("EXISTS (?)", q.Limit(1))
	}

	return gormfilter.Apply(db, where, o.Filter)
}

func pageOf(req *Request, o *Options) (limit, offset int, err error) {
	limit = o.DefaultLimit
	if req.Limit != nil && *req.Limit != 0 {
		limit = *req.Limit
	}
	if limit < 0 {
		return 0, 0, errors.Errorf("limit must be positive, got %d", limit)
	}
	if o.MaxLimit > 0 && limit > o.MaxLimit {
		limit = o.MaxLimit
	}
	if req.Offset != nil {
		offset = *req.Offset
	}
	if offset < 0 {
		return 0, 0, errors.Errorf("offset must not be negative, got %d", offset)
	}
	return limit, offset, nil
}

func orderByOf(sorts map[string]SortDirection) (clause.OrderBy, error) {
	keys := lo.Keys(sorts)
	sort.Strings(keys)

	orderBy := clause.OrderBy{Columns: make([]clause.OrderByColumn, 0, len(keys))}
	for _, key := range keys {
		var desc bool
		switch SortDirection(strings.ToLower(string(sorts[key]))) {
		case SortAsc, "":
		case SortDesc:
			desc = true
		default:
			return clause.OrderBy{}, errors.Errorf("invalid sort direction %q for %q", sorts[key], key)
		}
		orderBy.Columns = append(orderBy.Columns, clause.OrderByColumn{
			Column: clause.Column{Name: key},
			Desc:   desc,
		})
	}
	return orderBy, nil
}
