// Package migrate applies the versioned route schema history to a database.
//
// Each step recreates the routes table in its new shape, copies the rows
// across and swaps the tables. A step and the version bump that records it
// commit in a single transaction, so a failed step leaves the database at the
// previous version and the next start retries it.
package migrate

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const versionKey = "schema_version"

// Step transforms the schema to Version.
type Step struct {
	Version int
	Name    string
	Apply   func(tx *gorm.DB, d Dialect) error
}

// schemaMeta is the key/value table holding the stored schema version.
type schemaMeta struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value int    `gorm:"column:value;not null"`
}

func (schemaMeta) TableName() string {
	return "schema_meta"
}

// Runner applies steps in version order.
type Runner struct {
	db      *gorm.DB
	dialect Dialect
	steps   []Step
	log     logrus.FieldLogger
}

// NewRunner validates and orders the steps for db.
func NewRunner(db *gorm.DB, log logrus.FieldLogger, steps ...Step) (*Runner, error) {
	dialect, err := DialectFor(db.Dialector.Name())
	if err != nil {
		return nil, err
	}

	ordered := make([]Step, len(steps))
	copy(ordered, steps)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	for i, s := range ordered {
		if s.Version <= 0 {
			return nil, fmt.Errorf("migration %q has non-positive version %d", s.Name, s.Version)
		}
		if s.Apply == nil {
			return nil, fmt.Errorf("migration %d (%s) has no apply function", s.Version, s.Name)
		}
		if i > 0 && ordered[i-1].Version == s.Version {
			return nil, fmt.Errorf("duplicate migration version %d", s.Version)
		}
	}

	return &Runner{db: db, dialect: dialect, steps: ordered, log: log}, nil
}

// Target is the highest defined version, 0 when there are no steps.
func (r *Runner) Target() int {
	if len(r.steps) == 0 {
		return 0
	}
	return r.steps[len(r.steps)-1].Version
}

// Version returns the stored schema version, 0 for a fresh database.
func (r *Runner) Version(ctx context.Context) (int, error) {
	if err := r.ensureMetaTable(ctx); err != nil {
		return 0, err
	}
	return r.readVersion(ctx)
}

// Run brings the database up to Target. Versions without a step are skipped.
func (r *Runner) Run(ctx context.Context) error {
	if len(r.steps) == 0 {
		return nil
	}

	current, err := r.Version(ctx)
	if err != nil {
		return err
	}
	if current == 0 {
		current = r.steps[0].Version - 1
	}

	target := r.Target()
	if current >= target {
		r.log.WithField("version", current).Debug("schema is up to date")
		return nil
	}

	byVersion := make(map[int]Step, len(r.steps))
	for _, s := range r.steps {
		byVersion[s.Version] = s
	}

	for current < target {
		next := current + 1
		if step, ok := byVersion[next]; ok {
			if err := r.apply(ctx, step); err != nil {
				return err
			}
		}
		current = next
	}
	return nil
}

func (r *Runner) apply(ctx context.Context, step Step) error {
	log := r.log.WithFields(logrus.Fields{"version": step.Version, "migration": step.Name})
	log.Info("applying migration")

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := step.Apply(tx, r.dialect); err != nil {
			return err
		}
		return writeVersion(tx, step.Version)
	})
	if err != nil {
		log.WithError(err).Error("migration failed")
		return fmt.Errorf("migration %d (%s) failed: %w", step.Version, step.Name, err)
	}
	return nil
}

func (r *Runner) ensureMetaTable(ctx context.Context) error {
	err := r.db.WithContext(ctx).Exec(`CREATE TABLE IF NOT EXISTS schema_meta (
		"key" TEXT PRIMARY KEY,
		"value" INTEGER NOT NULL
	)`).Error
	if err != nil {
		return fmt.Errorf("failed to create schema_meta: %w", err)
	}
	return nil
}

func (r *Runner) readVersion(ctx context.Context) (int, error) {
	var rows []schemaMeta
	if err := r.db.WithContext(ctx).Where(`"key" = ?`, versionKey).Limit(1).Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Value, nil
}

func writeVersion(tx *gorm.DB, version int) error {
	meta := schemaMeta{Key: versionKey, Value: version}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&meta).Error
	if err != nil {
		return fmt.Errorf("failed to store schema version %d: %w", version, err)
	}
	return nil
}
