package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	BookInstanceStatusAvailable   = "Available"
	BookInstanceStatusMaintenance = "Maintenance"
	BookInstanceStatusLoaned      = "Loaned"
	BookInstanceStatusReserved    = "Reserved"
)

// DefaultBookInstanceStatus is stored when a submission leaves the status
// blank.
const DefaultBookInstanceStatus = BookInstanceStatusMaintenance

// BookInstanceStatuses is the order the statuses are offered in forms.
var BookInstanceStatuses = []string{
	BookInstanceStatusMaintenance,
	BookInstanceStatusAvailable,
	BookInstanceStatusLoaned,
	BookInstanceStatusReserved,
}

const dueBackISOLayout = "2006-01-02"

// BookInstance is a single physical copy of a Book.
type BookInstance struct {
	bun.BaseModel `bun:"table:book_instances,alias:bi"`

	ID        string     `bun:",pk" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	BookID    string     `bun:",nullzero" json:"book_id"`
	Book      *Book      `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	Imprint   string     `bun:",nullzero" json:"imprint"`
	Status    string     `bun:",nullzero" json:"status"`
	DueBack   *time.Time `json:"due_back"`
}

// URL is the canonical locator of the instance's detail page. It is empty
// until the instance has been persisted.
func (bi *BookInstance) URL() string {
	if bi == nil || bi.ID == "" {
		return ""
	}
	return "/catalog/bookinstance/" + bi.ID
}

// DueBackFormatted is the human readable due date, e.g. "Jan 2, 2006".
func (bi *BookInstance) DueBackFormatted() string {
	if bi.DueBack == nil {
		return ""
	}
	return bi.DueBack.Format("Jan 2, 2006")
}

// DueBackISO is the due date as accepted by a date input.
func (bi *BookInstance) DueBackISO() string {
	if bi.DueBack == nil {
		return ""
	}
	return bi.DueBack.Format(dueBackISOLayout)
}

func IsValidBookInstanceStatus(status string) bool {
	for _, s := range BookInstanceStatuses {
		if s == status {
			return true
		}
	}
	return false
}
