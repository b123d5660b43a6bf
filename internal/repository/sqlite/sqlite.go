// Package sqlite is the embedded storage backend used for local development
// and tests. It implements the same repository contracts as the postgres
// backend on top of gorm.
package sqlite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/baharkarakas/qrpay-backend/internal/models"
	"github.com/baharkarakas/qrpay-backend/internal/repository"
)

// Open opens (and migrates) a database under dataDir. An empty dataDir gives a
// private in-memory database, which is what the tests use.
func Open(dataDir string) (*gorm.DB, error) {
	var dsn string
	if dataDir == "" {
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uuid.NewString())
	} else {
		if err := os.MkdirAll(dataDir, fs.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
			filepath.Join(dataDir, "qrpay.sqlite"))
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Discard,
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection keeps conditional
	// updates serialised
	sqlDB.SetMaxOpenConns(1)

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&consumerRow{}, &storeRow{}, &txRow{}, &auditRow{}); err != nil {
		return nil, err
	}
	return db, nil
}

func NewRepositories(db *gorm.DB) repository.Repositories {
	return repository.Repositories{
		Consumers:    &consumersRepo{db},
		Stores:       &storesRepo{db},
		Identities:   &identitiesRepo{db},
		Transactions: &transactionsRepo{db},
		AuditLogs:    &auditLogsRepo{db},
	}
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return errors.Join(models.ErrDuplicate, err)
	}
	return err
}
