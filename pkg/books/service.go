package books

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/uptrace/bun"
)

type RetrieveBookOptions struct {
	ID               *string
	IncludeInstances bool
}

type ListBooksOptions struct {
	// Columns limits the selected columns. ID is always selected.
	Columns []string
	Limit   *int
	Offset  *int
	Search  *string

	includeTotal bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	book.Title = strings.TrimSpace(book.Title)
	if book.Title == "" {
		return errcodes.ValidationError("Title must be specified")
	}
	if book.ID == "" {
		book.ID = uuid.NewString()
	}
	now := time.Now()
	if book.CreatedAt.IsZero() {
		book.CreatedAt = now
	}
	book.UpdatedAt = book.CreatedAt

	_, err := svc.db.
		NewInsert().
		Model(book).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("created book", logger.Data{"book_id": book.ID, "title": book.Title})
	return nil
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := svc.db.
		NewSelect().
		Model(book)

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}
	if opts.IncludeInstances {
		q = q.Relation("BookInstances", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("bi.status ASC", "bi.imprint ASC")
		})
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

// ListBooks returns books sorted by title ascending.
func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	var books []*models.Book
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Order("b.title ASC", "b.id ASC")

	if len(opts.Columns) > 0 {
		q = q.Column(append([]string{"id"}, opts.Columns...)...)
	}
	// Search using LIKE on the title and author
	if opts.Search != nil && *opts.Search != "" {
		search := "%" + strings.ToLower(*opts.Search) + "%"
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Where("LOWER(b.title) LIKE ?", search).WhereOr("LOWER(b.author) LIKE ?", search)
		})
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

func (svc *Service) CountBooks(ctx context.Context) (int, error) {
	count, err := svc.db.NewSelect().
		Model((*models.Book)(nil)).
		Count(ctx)
	return count, errors.WithStack(err)
}
