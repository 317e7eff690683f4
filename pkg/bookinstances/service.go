package bookinstances

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/formflow"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/uptrace/bun"
)

var errNotFound = errcodes.NotFound("Book instance")

type RetrieveBookInstanceOptions struct {
	ID *string
}

type ListBookInstancesOptions struct {
	Limit  *int
	Offset *int
	Status *string
	BookID *string

	includeTotal bool
}

type CountBookInstancesOptions struct {
	Status *string
}

// InstanceValue is a book instance that passed every form check.
type InstanceValue struct {
	BookID  string
	Imprint string
	Status  string
	DueBack *time.Time
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) RetrieveBookInstance(ctx context.Context, opts RetrieveBookInstanceOptions) (*models.BookInstance, error) {
	instance := &models.BookInstance{}

	q := svc.db.
		NewSelect().
		Model(instance).
		Relation("Book")

	if opts.ID != nil {
		q = q.Where("bi.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, errors.WithStack(err)
	}

	return instance, nil
}

func (svc *Service) ListBookInstances(ctx context.Context, opts ListBookInstancesOptions) ([]*models.BookInstance, error) {
	i, _, err := svc.listBookInstancesWithTotal(ctx, opts)
	return i, errors.WithStack(err)
}

func (svc *Service) ListBookInstancesWithTotal(ctx context.Context, opts ListBookInstancesOptions) ([]*models.BookInstance, int, error) {
	opts.includeTotal = true
	return svc.listBookInstancesWithTotal(ctx, opts)
}

func (svc *Service) listBookInstancesWithTotal(ctx context.Context, opts ListBookInstancesOptions) ([]*models.BookInstance, int, error) {
	var instances []*models.BookInstance
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&instances).
		Relation("Book").
		Order("book.title ASC", "bi.imprint ASC", "bi.id ASC")

	if opts.Status != nil {
		q = q.Where("bi.status = ?", *opts.Status)
	}
	if opts.BookID != nil {
		q = q.Where("bi.book_id = ?", *opts.BookID)
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

	return instances, total, nil
}

func (svc *Service) CountBookInstances(ctx context.Context, opts CountBookInstancesOptions) (int, error) {
	q := svc.db.NewSelect().
		Model((*models.BookInstance)(nil))

	if opts.Status != nil {
		q = q.Where("bi.status = ?", *opts.Status)
	}

	count, err := q.Count(ctx)
	return count, errors.WithStack(err)
}

// CreateBookInstance inserts the instance under a new id. A book_id that
// doesn't reference a book fails at the database.
func (svc *Service) CreateBookInstance(ctx context.Context, instance *models.BookInstance) error {
	instance.ID = uuid.NewString()
	now := time.Now()
	instance.CreatedAt = now
	instance.UpdatedAt = now
	if instance.Status == "" {
		instance.Status = models.DefaultBookInstanceStatus
	}

	_, err := svc.db.
		NewInsert().
		Model(instance).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("created book instance", logger.Data{"book_instance_id": instance.ID, "book_id": instance.BookID})
	return nil
}

// ReplaceBookInstance overwrites every editable field of the instance with
// the given ID.
func (svc *Service) ReplaceBookInstance(ctx context.Context, instance *models.BookInstance) error {
	instance.UpdatedAt = time.Now()
	if instance.Status == "" {
		instance.Status = models.DefaultBookInstanceStatus
	}

	res, err := svc.db.
		NewUpdate().
		Model(instance).
		Column("book_id", "imprint", "status", "due_back", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errNotFound
	}

	logger.FromContext(ctx).Info("replaced book instance", logger.Data{"book_instance_id": instance.ID})
	return nil
}

// DeleteBookInstance removes the instance with the given ID. Removing an
// instance that doesn't exist succeeds.
func (svc *Service) DeleteBookInstance(ctx context.Context, id string) error {
	res, err := svc.db.
		NewDelete().
		Model((*models.BookInstance)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("deleted book instance", logger.Data{"book_instance_id": id, "deleted": affected > 0})
	return nil
}

// Create and Replace let the service back the book instance form workflow.
var _ formflow.Store[InstanceValue, *models.BookInstance] = (*Service)(nil)

func (svc *Service) Create(ctx context.Context, v formflow.Validated[InstanceValue]) (*models.BookInstance, error) {
	value, err := v.Value()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	instance := value.model()
	if err := svc.CreateBookInstance(ctx, instance); err != nil {
		return nil, errors.WithStack(err)
	}
	return instance, nil
}

func (svc *Service) Replace(ctx context.Context, id string, v formflow.Validated[InstanceValue]) (*models.BookInstance, error) {
	value, err := v.Value()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	instance := value.model()
	instance.ID = id
	if err := svc.ReplaceBookInstance(ctx, instance); err != nil {
		return nil, errors.WithStack(err)
	}
	return svc.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &id})
}

func (v InstanceValue) model() *models.BookInstance {
	return &models.BookInstance{
		BookID:  v.BookID,
		Imprint: v.Imprint,
		Status:  v.Status,
		DueBack: v.DueBack,
	}
}
