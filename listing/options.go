package listing

import "github.com/theplant/gqlwhere/filter/gormfilter"

// DefaultLimit is the page size used when a request carries no limit.
const DefaultLimit = 20

type Option func(*Options)

type Options struct {
	Exists       map[string]ExistsFilter
	Filter       *gormfilter.Config
	DefaultLimit int
	MaxLimit     int
}

// ExistsFilter moves the filter found under one key of the request into a
// correlated EXISTS subquery on another table.
type ExistsFilter struct {
	Table string
	// Where is raw SQL joining Table to the outer query, such as
	// "accounts.owner_id = users.id".
	Where string
	Vars  []any
}

// WithExists routes Request.Where[key] through ef instead of the outer query.
func WithExists(key string, ef ExistsFilter) Option {
	return func(o *Options) {
		if o.Exists == nil {
			o.Exists = map[string]ExistsFilter{}
		}
		o.Exists[key] = ef
	}
}

// WithFilterConfig sets the rendering configuration for every compiled filter.
func WithFilterConfig(cfg *gormfilter.Config) Option {
	return func(o *Options) {
		o.Filter = cfg
	}
}

// WithLimits sets the default page size and caps the requested one.
// A maxLimit of zero means the page size is not capped.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(o *Options) {
		o.DefaultLimit = defaultLimit
		o.MaxLimit = maxLimit
	}
}
