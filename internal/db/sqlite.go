// Package db is the persistence collaborator: sqlite-backed stores for
// user tokens, thread summaries, and the reply log.
package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/inboxpilot/inboxpilot/internal/db/models"
)

// InitDB opens the SQLite database and runs migrations.
func InitDB(dbPath string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := gdb.AutoMigrate(
		&models.UserToken{},
		&models.ThreadSummary{},
		&models.EmailSummary{},
		&models.EmailReply{},
	); err != nil {
		return nil, err
	}

	return gdb, nil
}
