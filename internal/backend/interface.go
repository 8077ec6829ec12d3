// Package backend selects and wires the storage backend for the HTTP server.
package backend

import (
	"fmt"

	"tally/internal/config"
	"tally/internal/services"
	"tally/internal/sheets"
)

// Backend is the full read/write surface the services need from a store.
type Backend interface {
	sheets.ExpenseAppender
	sheets.IncomeAppender
	sheets.ExpenseLister
	sheets.IncomeLister
	sheets.ExpenseUpdater
	sheets.ExpenseDeleter
	sheets.IncomeUpdater
	sheets.IncomeDeleter
}

// CleanupFunc releases resources held by a backend (connections, file handles).
type CleanupFunc func() error

// BackendResult bundles a ready backend with its cleanup function. Recurring
// is set only when the backend can persist recurring templates (sqlite).
type BackendResult struct {
	Backend   Backend
	Recurring services.RecurringStore
	Cleanup   CleanupFunc
}

// BackendType identifies which backend implementation to use.
type BackendType string

const (
	BackendSQLite BackendType = "sqlite"
	BackendSheets BackendType = "sheets"
	BackendMemory BackendType = "memory"
)

func (b BackendType) IsValid() bool {
	switch b {
	case BackendSQLite, BackendSheets, BackendMemory:
		return true
	}
	return false
}

func (b BackendType) String() string {
	return string(b)
}

// Config carries the settings needed to construct a backend.
type Config struct {
	Type BackendType

	// SQLite
	DBPath string

	// AMQP sync publishing (optional, sqlite backend only)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig derives a backend configuration from the application config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	bt := BackendType(cfg.DataBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("unknown backend type: %s", cfg.DataBackend)
	}
	return Config{
		Type:         bt,
		DBPath:       cfg.SQLiteDBPath,
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
		AMQPQueue:    cfg.AMQPQueue,
	}, nil
}
