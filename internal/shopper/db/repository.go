package db

import (
	"context"
	"strings"

	e "github.com/gartstein/shopper/internal/shopper/errors"
	"github.com/gartstein/shopper/internal/shopper/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type query struct {
	tx      *gorm.DB
	ordered bool
}

// QueryOption shapes a repository read.
type QueryOption func(q *query)

// Where filters with a condition in GORM syntax, e.g. Where("name_key = ?", key).
func Where(cond string, args ...any) QueryOption {
	return func(q *query) {
		q.tx = q.tx.Where(cond, args...)
	}
}

// OrderBy sorts by a column. Without it results come in primary key order.
func OrderBy(column string, desc bool) QueryOption {
	return func(q *query) {
		q.tx = q.tx.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
		q.ordered = true
	}
}

// Include eagerly loads one association path, e.g.
// Include(models.RelCompanyAddresses, models.RelAddressCity). Intermediate
// associations of the path are loaded too.
func Include(path ...models.Relation) QueryOption {
	names := make([]string, len(path))
	for i, rel := range path {
		names[i] = string(rel)
	}
	joined := strings.Join(names, ".")
	return func(q *query) {
		q.tx = q.tx.Preload(joined)
	}
}

// Page limits the result window. Non-positive values are ignored.
func Page(limit, offset int) QueryOption {
	return func(q *query) {
		if limit > 0 {
			q.tx = q.tx.Limit(limit)
		}
		if offset > 0 {
			q.tx = q.tx.Offset(offset)
		}
	}
}

// Repository gives typed access to one entity table within a Session.
// Reads run immediately; writes are staged on the session.
type Repository[T any, PT interface {
	*T
	models.Entity
}] struct {
	session  *Session
	defaults []QueryOption
}

// NewRepository binds a repository for T to session. defaults are applied
// to every read, typically the includes of the aggregate.
func NewRepository[T any, PT interface {
	*T
	models.Entity
}](session *Session, defaults ...QueryOption) *Repository[T, PT] {
	return &Repository[T, PT]{session: session, defaults: defaults}
}

func (r *Repository[T, PT]) table() string {
	var zero T
	return PT(&zero).TableName()
}

// Get returns every entity matching opts, fully materialized.
func (r *Repository[T, PT]) Get(ctx context.Context, opts ...QueryOption) ([]T, error) {
	var zero T
	q := &query{tx: r.session.db.WithContext(ctx).Model(PT(&zero))}
	for _, opt := range r.defaults {
		opt(q)
	}
	for _, opt := range opts {
		opt(q)
	}
	if !q.ordered {
		q.tx = q.tx.Order(clause.OrderByColumn{Column: clause.PrimaryColumn})
	}

	var out []T
	if err := q.tx.Find(&out).Error; err != nil {
		return nil, classify(e.OpSelect, r.table(), err)
	}
	return out, nil
}

// First returns the first entity matching opts, or nil when none does.
func (r *Repository[T, PT]) First(ctx context.Context, opts ...QueryOption) (PT, error) {
	out, err := r.Get(ctx, append(opts, Page(1, 0))...)
	if err != nil || len(out) == 0 {
		return nil, err
	}
	return PT(&out[0]), nil
}

// GetByID returns the entity with the given identity, or nil when absent.
func (r *Repository[T, PT]) GetByID(ctx context.Context, id uint, opts ...QueryOption) (PT, error) {
	return r.First(ctx, append([]QueryOption{byID(id)}, opts...)...)
}

// GetWithRawQuery runs a hand-written SELECT with positional parameters and
// scans the rows into T. Default includes are not applied.
func (r *Repository[T, PT]) GetWithRawQuery(ctx context.Context, sql string, params ...any) ([]T, error) {
	var out []T
	if err := r.session.db.WithContext(ctx).Raw(sql, params...).Scan(&out).Error; err != nil {
		return nil, classify(e.OpSelect, r.table(), err)
	}
	return out, nil
}

// Count returns how many rows match opts, ignoring paging.
func (r *Repository[T, PT]) Count(ctx context.Context, opts ...QueryOption) (int64, error) {
	var zero T
	q := &query{tx: r.session.db.WithContext(ctx).Model(PT(&zero))}
	for _, opt := range opts {
		opt(q)
	}
	var n int64
	if err := q.tx.Count(&n).Error; err != nil {
		return 0, classify(e.OpSelect, r.table(), err)
	}
	return n, nil
}

func (r *Repository[T, PT]) Insert(entity PT) error {
	return r.session.Insert(entity)
}

func (r *Repository[T, PT]) Update(entity PT) error {
	return r.session.Update(entity)
}

// Delete resolves the entity by identity and stages its removal. An absent
// entity is a no-op; the returned flag reports whether anything was staged.
func (r *Repository[T, PT]) Delete(ctx context.Context, id uint) (bool, error) {
	var found []T
	if err := r.session.db.WithContext(ctx).Where(idEquals(id)).Limit(1).Find(&found).Error; err != nil {
		return false, classify(e.OpSelect, r.table(), err)
	}
	if len(found) == 0 {
		return false, nil
	}
	return true, r.session.Delete(PT(&found[0]))
}

func (r *Repository[T, PT]) DeleteEntity(entity PT) error {
	return r.session.Delete(entity)
}

func byID(id uint) QueryOption {
	return func(q *query) {
		q.tx = q.tx.Where(idEquals(id))
	}
}

func idEquals(id uint) clause.Eq {
	return clause.Eq{Column: clause.PrimaryColumn, Value: id}
}
