package db

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	e "github.com/gartstein/shopper/internal/shopper/errors"
	"github.com/gartstein/shopper/internal/shopper/metrics"
	"github.com/gartstein/shopper/internal/shopper/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errRowMissing is raised when an update targets a row that no longer exists.
var errRowMissing = errors.New("row does not exist")

type stagedOp struct {
	op     e.Operation
	entity models.Entity
}

// Session is a unit of work. Repositories bound to it read through the
// shared pool immediately and stage writes; nothing is written until Save.
// A Session must not be used from more than one goroutine.
type Session struct {
	db      *gorm.DB
	logger  *zap.Logger
	metrics *metrics.Metrics

	ops    []stagedOp
	staged map[models.Entity]struct{}
	// refs remembers reference rows resolved or staged in this unit of
	// work, so two graphs naming the same new city share one row.
	refs map[string]models.Entity
}

// Insert stages the creation of entity and its new associations.
func (s *Session) Insert(entity models.Entity) error {
	if isNil(entity) {
		return fmt.Errorf("%w: nil entity", e.ErrStaging)
	}
	if entity.Identity() != 0 {
		return fmt.Errorf("%w: %s %d is already persisted", e.ErrStaging, entity.TableName(), entity.Identity())
	}
	return s.stage(e.OpInsert, entity)
}

// Update stages a full overwrite of an identified entity and its loaded
// associations.
func (s *Session) Update(entity models.Entity) error {
	if isNil(entity) {
		return fmt.Errorf("%w: nil entity", e.ErrStaging)
	}
	if entity.Identity() == 0 {
		return fmt.Errorf("%w: %s has no identity", e.ErrStaging, entity.TableName())
	}
	return s.stage(e.OpUpdate, entity)
}

// Delete stages the removal of an identified entity.
func (s *Session) Delete(entity models.Entity) error {
	if isNil(entity) {
		return fmt.Errorf("%w: nil entity", e.ErrStaging)
	}
	if entity.Identity() == 0 {
		return fmt.Errorf("%w: %s has no identity", e.ErrStaging, entity.TableName())
	}
	return s.stage(e.OpDelete, entity)
}

func (s *Session) stage(op e.Operation, entity models.Entity) error {
	if _, ok := s.staged[entity]; ok {
		return fmt.Errorf("%w: %s is already staged", e.ErrStaging, entity.TableName())
	}
	s.staged[entity] = struct{}{}
	s.ops = append(s.ops, stagedOp{op: op, entity: entity})
	s.metrics.IncStaged(string(op), entity.TableName())
	return nil
}

// Pending is the number of staged operations.
func (s *Session) Pending() int {
	return len(s.ops)
}

// Discard drops every staged operation.
func (s *Session) Discard() {
	s.ops = nil
	s.staged = make(map[models.Entity]struct{})
	s.refs = make(map[string]models.Entity)
}

func (s *Session) reference(key string) (models.Entity, bool) {
	ref, ok := s.refs[key]
	return ref, ok
}

func (s *Session) remember(key string, ref models.Entity) {
	s.refs[key] = ref
}

// Save commits every staged operation, in staging order, in one
// transaction. On failure nothing is written and the error is a
// *errors.PersistenceError naming the offending operation, and the staged
// inserts get their zero identity back so they can be staged again. Either
// way the session is empty afterwards.
func (s *Session) Save(ctx context.Context) error {
	ops := s.ops
	s.Discard()
	if len(ops) == 0 {
		return nil
	}

	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			if err := apply(tx, op); err != nil {
				return classify(op.op, op.entity.TableName(), err)
			}
		}
		return nil
	})
	if err != nil {
		err = classify(e.OpCommit, "transaction", err)
		for _, op := range ops {
			if op.op == e.OpInsert {
				forget(op.entity)
			}
		}
		outcome := metrics.OutcomeFailed
		if e.IsConflict(err) {
			outcome = metrics.OutcomeConflict
		}
		s.metrics.ObserveSave(outcome, start)
		s.logger.Warn("save rolled back", zap.Int("operations", len(ops)), zap.Error(err))
		return err
	}

	s.metrics.ObserveSave(metrics.OutcomeCommitted, start)
	s.logger.Debug("save committed", zap.Int("operations", len(ops)), zap.Duration("took", time.Since(start)))
	return nil
}

func apply(tx *gorm.DB, op stagedOp) error {
	switch op.op {
	case e.OpInsert:
		return tx.Create(op.entity).Error
	case e.OpUpdate:
		// Save falls back to an insert when no row matches, which would
		// resurrect a concurrently deleted row.
		var n int64
		if err := tx.Table(op.entity.TableName()).Where("id = ?", op.entity.Identity()).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return errRowMissing
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Omit("CreatedAt").Save(op.entity).Error
	case e.OpDelete:
		return tx.Delete(op.entity).Error
	default:
		return fmt.Errorf("unknown operation %q", op.op)
	}
}

// classify wraps a storage error into a PersistenceError. Errors that
// already carry one are returned unchanged.
func classify(op e.Operation, entity string, err error) error {
	var perr *e.PersistenceError
	if errors.As(err, &perr) {
		return err
	}
	return &e.PersistenceError{Op: op, Entity: entity, Kind: kindOf(err), Err: err}
}

func kindOf(err error) error {
	switch {
	case errors.Is(err, errRowMissing),
		errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return e.ErrPersistenceConflict
	case errors.Is(err, gorm.ErrUnsupportedRelation),
		errors.Is(err, gorm.ErrInvalidField):
		return e.ErrQuery
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "23": // integrity constraint violation
			return e.ErrPersistenceConflict
		case "42": // syntax error or access rule violation
			return e.ErrQuery
		}
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrConstraint:
			return e.ErrPersistenceConflict
		case sqlite3.ErrError:
			return e.ErrQuery
		}
	}

	return e.ErrPersistence
}

func isNil(entity models.Entity) bool {
	if entity == nil {
		return true
	}
	v := reflect.ValueOf(entity)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// forget clears the identity the store assigned during a rolled back insert.
func forget(entity models.Entity) {
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return
	}
	if id := v.Elem().FieldByName("ID"); id.IsValid() && id.CanSet() && id.Kind() == reflect.Uint {
		id.SetUint(0)
	}
}
