// Package testgen creates migrated databases and catalog records for tests.
package testgen

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/database"
	"github.com/shishobooks/catalog/pkg/migrations"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/uptrace/bun"
)

// BookOptions configures the generated book.
type BookOptions struct {
	Title   string // defaults to "Untitled"
	Author  string
	Summary string
}

// InstanceOptions configures the generated book instance.
type InstanceOptions struct {
	Imprint string // defaults to "Test Imprint"
	Status  string // defaults to Maintenance
	DueBack *time.Time
}

// NewDB opens an in-memory database with every migration applied. It is
// closed when the test completes.
func NewDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := database.New(config.NewForTest())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if _, err := migrations.BringUpToDate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

// CreateBook inserts a book directly, bypassing any service logic.
func CreateBook(t *testing.T, db *bun.DB, opts BookOptions) *models.Book {
	t.Helper()

	if opts.Title == "" {
		opts.Title = "Untitled"
	}
	now := time.Now()
	book := &models.Book{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Title:     opts.Title,
		Author:    StringPtr(opts.Author),
		Summary:   StringPtr(opts.Summary),
	}
	if _, err := db.NewInsert().Model(book).Exec(context.Background()); err != nil {
		t.Fatalf("failed to create book %q: %v", opts.Title, err)
	}
	return book
}

// CreateInstance inserts a copy of the given book directly.
func CreateInstance(t *testing.T, db *bun.DB, bookID string, opts InstanceOptions) *models.BookInstance {
	t.Helper()

	if opts.Imprint == "" {
		opts.Imprint = "Test Imprint"
	}
	if opts.Status == "" {
		opts.Status = models.DefaultBookInstanceStatus
	}
	now := time.Now()
	instance := &models.BookInstance{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		BookID:    bookID,
		Imprint:   opts.Imprint,
		Status:    opts.Status,
		DueBack:   opts.DueBack,
	}
	if _, err := db.NewInsert().Model(instance).Exec(context.Background()); err != nil {
		t.Fatalf("failed to create book instance: %v", err)
	}
	return instance
}

// StringPtr returns nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
