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
	"io"
)

// OpenOption customizes the manager built by Open.
type OpenOption func(AbstractDatabaseManager)

// WithLogger replaces the package logger for the opened manager.
func WithLogger(logger Logger) OpenOption {
	return func(m AbstractDatabaseManager) { m.SetLogger(logger) }
}

// WithEchoWriter sends EchoQueries output to w instead of stdout.
func WithEchoWriter(w io.Writer) OpenOption {
	return func(m AbstractDatabaseManager) { m.SetEchoWriter(w) }
}

// Open connects to the database described by cfg and, when
// DataMigrateConfig.EnableMigrateOnStartup is set, materializes schema.
// The caller owns the returned manager and must Disconnect it.
func Open(ctx context.Context, cfg *Config, schema *Schema, opts ...OpenOption) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	conn := cfg.ConnectionConfig
	manager := newDatabaseManager(&conn, cfg.DataMigrateConfig)
	for _, opt := range opts {
		opt(manager)
	}

	if err := manager.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.DataMigrateConfig.EnableMigrateOnStartup {
		if err := manager.RunMigrations(ctx, schema); err != nil {
			_ = manager.Disconnect()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	if manager.logger != nil {
		manager.logger.Debug("Database initialization completed", "dbname", conn.DBName)
	}
	return manager, nil
}
