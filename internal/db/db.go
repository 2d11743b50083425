package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the Postgres connection. TranslateError is on so unique
// index violations surface as gorm.ErrDuplicatedKey, which the
// conversation store relies on for its create-race fallback.
func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
}
