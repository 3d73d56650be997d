/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// MigrationManager materializes a Schema: it creates every model's table,
// then its indexes, recording each applied step in bun_migrations.
type MigrationManager struct {
	db      *bun.DB
	schema  *Schema
	logger  Logger
	options DataMigrateConfig
}

// Migration represents an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:bun_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

func NewMigrationManager(db *bun.DB, schema *Schema, logger Logger) *MigrationManager {
	return &MigrationManager{
		db:      db,
		schema:  schema,
		logger:  logger,
		options: DataMigrateConfig{EnableIndexes: true},
	}
}

func (mm *MigrationManager) SetOptions(opts DataMigrateConfig) {
	mm.options = opts
}

// RunMigrations creates the migration tracking table if needed and executes
// all pending migrations in ascending version order. Already applied
// versions are skipped, so it is safe to call repeatedly.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if mm.schema == nil {
		return fmt.Errorf("schema cannot be nil")
	}

	if err := mm.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := mm.getAllMigrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	for _, migration := range migrations {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}

	mm.log("Database migrations completed", "models", len(mm.schema.Models()))
	return nil
}

func (mm *MigrationManager) createMigrationTable(ctx context.Context) error {
	_, err := mm.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (mm *MigrationManager) getAllMigrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "001",
			Name:        "create_tables",
			Description: "Create one table per schema model",
			Up:          mm.createTables,
		},
	}
	if mm.options.EnableIndexes {
		migrations = append(migrations, MigrationItem{
			Version:     "002",
			Name:        "create_indexes",
			Description: "Create secondary indexes declared by schema models",
			Up:          mm.createIndexes,
		})
	}
	return migrations
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	exists, err := mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	tx, err := mm.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	var committed bool
	defer func(tx bun.Tx) {
		if !committed {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && mm.logger != nil {
				mm.logger.Error("Failed to rollback transaction", "error", rollbackErr)
			}
		}
	}(tx)

	if err := migration.Up(ctx, tx); err != nil {
		return err
	}

	_, err = tx.NewInsert().
		Model(&Migration{
			Version:     migration.Version,
			Name:        migration.Name,
			AppliedAt:   time.Now(),
			Description: migration.Description,
		}).
		Exec(ctx)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	mm.log("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

func (mm *MigrationManager) createTables(ctx context.Context, db bun.IDB) error {
	for _, model := range mm.schema.Instances() {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table %s: %w", getModelName(model), err)
		}
	}
	return nil
}

func (mm *MigrationManager) createIndexes(ctx context.Context, db bun.IDB) error {
	// mysql has no CREATE INDEX IF NOT EXISTS; an existing index is reported
	// as an error and tolerated below instead.
	ifNotExists := db.Dialect().Name() != dialect.MySQL

	for _, model := range mm.schema.Models() {
		for _, idx := range model.Indexes() {
			q := db.NewCreateIndex().
				Model(model.Instance()).
				Index(idx.Name).
				Column(idx.Columns...)
			if idx.Unique {
				q = q.Unique()
			}
			if ifNotExists {
				q = q.IfNotExists()
			}
			if _, err := q.Exec(ctx); err != nil {
				if IsSqlErrorOf(err, ExistIndexErr) {
					mm.log("Index already exists", "index", idx.Name)
					continue
				}
				return fmt.Errorf("failed to create index %s on %s: %w", idx.Name, getModelName(model.Instance()), err)
			}
		}
	}
	return nil
}

// GetAppliedMigrations returns migration records ordered by version. It runs
// on the manager's pool and waits while every pooled connection is held.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}

func (mm *MigrationManager) log(msg string, fields ...interface{}) {
	if mm.logger == nil {
		return
	}
	if mm.options.AuditLog {
		mm.logger.Info(msg, fields...)
	} else {
		mm.logger.Debug(msg, fields...)
	}
}

func getModelName(model interface{}) string {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
