package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ibis-route-manager/internal/migrate"
	"ibis-route-manager/internal/model"
)

// Store defines the interface for all route database operations.
type Store interface {
	Initialize(ctx context.Context) error
	ListAll(ctx context.Context) ([]model.Route, error)
	Get(ctx context.Context, id string) (model.Route, error)
	Add(ctx context.Context, route model.Route) error
	Update(ctx context.Context, route model.Route) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db    *gorm.DB
	steps []migrate.Step
	log   logrus.FieldLogger
}

// NewGormStore creates a new GORM-backed store using the full migration
// history.
func NewGormStore(db *gorm.DB, log logrus.FieldLogger) Store {
	return &gormStore{db: db, steps: migrate.Steps(), log: log}
}

// Initialize brings the schema up to the latest version.
func (s *gormStore) Initialize(ctx context.Context) error {
	runner, err := migrate.NewRunner(s.db, s.log, s.steps...)
	if err != nil {
		return err
	}
	if err := runner.Run(ctx); err != nil {
		return err
	}
	s.log.WithField("version", runner.Target()).Info("route store initialized")
	return nil
}

// ListAll returns every route in storage order.
func (s *gormStore) ListAll(ctx context.Context) ([]model.Route, error) {
	routes := make([]model.Route, 0)
	if err := s.db.WithContext(ctx).Find(&routes).Error; err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routes, nil
}

// Get returns the route with the given id.
func (s *gormStore) Get(ctx context.Context, id string) (model.Route, error) {
	var routes []model.Route
	if err := s.db.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&routes).Error; err != nil {
		return model.Route{}, fmt.Errorf("failed to get route %s: %w", id, err)
	}
	if len(routes) == 0 {
		return model.Route{}, ErrNotFound
	}
	return routes[0], nil
}

// Add inserts a new route. The sign binary name defaults to "{id}.bin".
func (s *gormStore) Add(ctx context.Context, route model.Route) error {
	if !route.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, route.Type)
	}
	if route.AlfaSignBinFile == "" {
		route.AlfaSignBinFile = model.DefaultBinFile(route.ID)
	}

	if err := s.db.WithContext(ctx).Create(&route).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, route.ID)
		}
		return fmt.Errorf("failed to add route %s: %w", route.ID, err)
	}
	return nil
}

// Update replaces the mutable fields of the route with the same id. The type
// is fixed at creation and never written. An unknown id is not an error.
// An empty sign binary name falls back to "{id}.bin" as in Add.
func (s *gormStore) Update(ctx context.Context, route model.Route) error {
	if route.AlfaSignBinFile == "" {
		route.AlfaSignBinFile = model.DefaultBinFile(route.ID)
	}

	// A map keeps zero values (empty text, command 0) in the SET clause.
	result := s.db.WithContext(ctx).Model(&model.Route{}).Where("id = ?", route.ID).Updates(map[string]any{
		"name":               route.Name,
		"ibisLineCmd":        route.IbisLineCmd,
		"ibisDestinationCmd": route.IbisDestinationCmd,
		"alfaSignText":       route.AlfaSignText,
		"alfaSignBinFile":    route.AlfaSignBinFile,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update route %s: %w", route.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		s.log.WithField("id", route.ID).Debug("update matched no route")
	}
	return nil
}

// Delete removes the route with the given id, if any.
func (s *gormStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Route{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete route %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		s.log.WithField("id", id).Debug("delete matched no route")
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
