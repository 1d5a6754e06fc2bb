package service

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"learn2b.app/ieltsbackend/internal/model"
)

// newTestDB opens a fresh in-memory database per test. TranslateError
// matches production: unique violations surface as
// gorm.ErrDuplicatedKey on both drivers.
func newTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("failed to get sql db: %v", err)
	}
	// A single connection keeps the in-memory db alive for the
	// duration of the test.
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Lesson{},
		&model.Enrollment{},
		&model.LessonCompletion{},
		&model.Assignment{},
		&model.Submission{},
		&model.Post{},
		&model.PostLike{},
		&model.Comment{},
		&model.Badge{},
		&model.UserBadge{},
		&model.Notification{},
	); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}

	return db
}
