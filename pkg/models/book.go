package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID            string          `bun:",pk" json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Title         string          `bun:",nullzero" json:"title"`
	Author        *string         `json:"author"`
	Summary       *string         `json:"summary"`
	ISBN          *string         `bun:"isbn" json:"isbn"`
	BookInstances []*BookInstance `bun:"rel:has-many,join:id=book_id" json:"book_instances,omitempty"`
}

// URL is the canonical locator of the book's detail page.
func (b *Book) URL() string {
	if b == nil || b.ID == "" {
		return ""
	}
	return "/catalog/book/" + b.ID
}
