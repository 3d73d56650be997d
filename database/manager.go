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
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// AbstractDatabaseManager defines the operations for managing a database
// connection, running migrations and reporting health.
type AbstractDatabaseManager interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Ping(ctx context.Context) error
	HealthCheck(ctx context.Context) *HealthStatus
	GetDB() *bun.DB
	GetSQLDB() *sql.DB
	RunMigrations(ctx context.Context, schema *Schema) error
	GetStats() *DBStats
	SetLogger(logger Logger)
	SetEchoWriter(w io.Writer)
}

type defaultDatabaseManager struct {
	config     *ConnectionConfig
	migrate    DataMigrateConfig
	db         *bun.DB
	sqlDB      *sql.DB
	logger     Logger
	echoWriter io.Writer
	echoHook   *QueryHook
	mu         sync.RWMutex
	connected  bool
	lastError  error
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun.
// If config is nil, DefaultConnectionConfig is used.
func NewDatabaseManager(config *ConnectionConfig) AbstractDatabaseManager {
	return newDatabaseManager(config, DefaultConfig().DataMigrateConfig)
}

func newDatabaseManager(config *ConnectionConfig, migrate DataMigrateConfig) *defaultDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &defaultDatabaseManager{
		config:     config,
		migrate:    migrate,
		logger:     GetLogger(),
		echoWriter: os.Stdout,
	}
}

func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.connected && dm.db != nil {
		return nil
	}
	if err := dm.config.Validate(); err != nil {
		dm.lastError = err
		return err
	}

	var err error
	dm.sqlDB, dm.db, err = dm.createConnection()
	if err != nil {
		dm.lastError = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	dm.configureConnectionPool()

	ctxTimeout, cancel := context.WithTimeout(ctx, dm.config.ConnectTimeout)
	defer cancel()

	if err := dm.db.PingContext(ctxTimeout); err != nil {
		dm.lastError = err
		_ = dm.db.Close()
		dm.db, dm.sqlDB = nil, nil
		return fmt.Errorf("database connection test failed: %w", err)
	}

	dm.connected = true
	dm.lastError = nil

	if dm.logger != nil {
		dm.logger.Debug("Database connected successfully", "type", dm.config.Type, "dbname", dm.config.DBName, "memory", dm.config.Memory)
	}
	return nil
}

func (dm *defaultDatabaseManager) createConnection() (*sql.DB, *bun.DB, error) {
	if dm.config.ConnectTimeout <= 0 {
		dm.config.ConnectTimeout = 30 * time.Second
	}

	var db *bun.DB
	sqlDB, err := sql.Open(dm.config.DriverName(), dm.config.DSN())
	if err != nil {
		return nil, nil, err
	}

	switch dm.config.Type {
	case "mysql":
		db = bun.NewDB(sqlDB, mysqldialect.New())
	case "postgres", "postgresql":
		db = bun.NewDB(sqlDB, pgdialect.New())
	case "sqlite", "sqlite3":
		db = bun.NewDB(sqlDB, sqlitedialect.New())
	default:
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("unsupported database type: %s", dm.config.Type)
	}

	if dm.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	if dm.config.EchoQueries {
		dm.echoHook = NewQueryHook(dm.echoWriter, false)
		db.AddQueryHook(dm.echoHook)
	}
	if dm.config.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(dm.config.SlowQueryTime, dm.logger))
	}

	return sqlDB, db, nil
}

// DriverName returns the database/sql driver registered for the config type.
func (c *ConnectionConfig) DriverName() string {
	switch c.Type {
	case "mysql":
		return "mysql"
	case "postgres", "postgresql":
		return "postgres"
	default:
		return sqliteshim.ShimName
	}
}

// DSN builds the driver connection string for the config.
func (c *ConnectionConfig) DSN() string {
	switch c.Type {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
			c.Username,
			c.Password,
			c.Host,
			c.Port,
			c.DBName,
			c.ConnectTimeout,
			c.ReadTimeout,
			c.WriteTimeout,
		)
	case "postgres", "postgresql":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
			url.QueryEscape(c.Username),
			url.QueryEscape(c.Password),
			c.Host,
			c.Port,
			c.DBName,
			sslMode,
			int(c.ConnectTimeout.Seconds()),
		)
	default:
		if c.Memory {
			return fmt.Sprintf("file:%s?mode=memory&cache=shared", url.PathEscape(c.DBName))
		}
		return fmt.Sprintf("%s.db", c.DBName)
	}
}

func (dm *defaultDatabaseManager) configureConnectionPool() {
	if dm.sqlDB == nil {
		return
	}

	dm.sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	dm.sqlDB.SetMaxOpenConns(dm.config.MaxOpenConns)
	dm.sqlDB.SetConnMaxLifetime(dm.config.ConnMaxLifetime)
	dm.sqlDB.SetConnMaxIdleTime(dm.config.ConnMaxIdleTime)
	if dm.config.Memory {
		// closing the last connection drops an in-memory database
		dm.sqlDB.SetMaxIdleConns(max(dm.config.MaxIdleConns, 1))
		dm.sqlDB.SetConnMaxLifetime(0)
		dm.sqlDB.SetConnMaxIdleTime(0)
	}
}

func (dm *defaultDatabaseManager) Disconnect() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.db == nil {
		return nil
	}

	err := dm.db.Close()
	dm.db = nil
	dm.sqlDB = nil
	dm.connected = false

	if dm.logger != nil {
		if err != nil {
			dm.logger.Error("Failed to close database connection", "error", err)
		} else {
			dm.logger.Debug("Database connection closed", "dbname", dm.config.DBName)
		}
	}
	return err
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	dm.mu.RLock()
	db := dm.db
	dm.mu.RUnlock()

	if db == nil {
		return fmt.Errorf("database not connected")
	}

	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) GetSQLDB() *sql.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.sqlDB
}

// HealthCheck pings the database. A pool whose connections are all held
// open (a memory store has one, kept by an open session transaction) cannot
// serve a ping until they are released, so it is reported from pool stats
// without pinging.
func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	dm.mu.RLock()
	db, sqlDB, connected := dm.db, dm.sqlDB, dm.connected
	dm.mu.RUnlock()

	start := time.Now()
	status := &HealthStatus{
		LastCheckTime: start,
		Connected:     connected,
	}

	if db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	stats := sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections

	var err error
	if stats.MaxOpenConnections == 0 || stats.InUse < stats.MaxOpenConnections {
		ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
		err = db.PingContext(ctxTimeout)
		cancel()
	}
	status.ResponseTime = time.Since(start)

	if err != nil {
		status.Healthy = false
		status.Connected = false
		status.LastError = err.Error()
	} else {
		status.Healthy = true
		status.Connected = true
	}

	dm.mu.Lock()
	dm.lastError = err
	dm.mu.Unlock()
	return status
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	dm.mu.RLock()
	sqlDB := dm.sqlDB
	dm.mu.RUnlock()

	if sqlDB == nil {
		return &DBStats{}
	}

	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context, schema *Schema) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	if schema == nil {
		return fmt.Errorf("schema cannot be nil")
	}

	if dm.echoHook != nil {
		dm.echoHook.Silence(true)
		defer dm.echoHook.Silence(false)
	}

	migrationManager := NewMigrationManager(db, schema, dm.logger)
	migrationManager.SetOptions(dm.migrate)
	return migrationManager.RunMigrations(ctx)
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}

// SetEchoWriter sets where EchoQueries output goes; it must be called before Connect.
func (dm *defaultDatabaseManager) SetEchoWriter(w io.Writer) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.echoWriter = w
}
