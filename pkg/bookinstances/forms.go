package bookinstances

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/binder"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/formflow"
	"github.com/shishobooks/catalog/pkg/models"
)

const (
	createTitle = "Create BookInstance"
	updateTitle = "Update BookInstance"
	deleteTitle = "Delete BookInstance"

	// ListURL is where deletes land.
	ListURL = "/catalog/bookinstances"
)

// FormValues are the values shown in the book instance form.
type FormValues struct {
	Book    string
	Imprint string
	Status  string
	DueBack string
}

// FormPage is everything the book instance form template needs.
type FormPage struct {
	Title        string
	Books        []*models.Book
	SelectedBook string
	Instance     *FormValues
	Errors       binder.FieldErrors
	Statuses     []string
}

type DeletePage struct {
	Title    string
	Instance *models.BookInstance
}

// Submission is the result of posting the form: a page to re-render, or a
// location to redirect to.
type Submission struct {
	Page        *FormPage
	RedirectURL string
}

type instanceWorkflow = formflow.Workflow[InstancePayload, InstanceValue, *models.BookInstance]

// FormService drives the pages that create, update, and delete book
// instances.
type FormService struct {
	instanceService *Service
	bookService     *books.Service
	workflow        *instanceWorkflow
}

func NewFormService(instanceService *Service, bookService *books.Service, checker formflow.Checker) *FormService {
	return &FormService{
		instanceService: instanceService,
		bookService:     bookService,
		workflow:        formflow.New[InstancePayload, InstanceValue, *models.BookInstance](checker, instanceService, acceptInstance),
	}
}

func acceptInstance(raw *InstancePayload) InstanceValue {
	v := InstanceValue{
		BookID:  raw.Book,
		Imprint: raw.Imprint,
		Status:  raw.Status,
	}
	if v.Status == "" {
		v.Status = models.DefaultBookInstanceStatus
	}
	if raw.DueBack != "" {
		if t, ok := binder.ParseDate(raw.DueBack); ok {
			v.DueBack = &t
		}
	}
	return v
}

func (fs *FormService) PrepareCreateForm(ctx context.Context) (*FormPage, error) {
	return fs.formPage(ctx, createTitle, nil, nil)
}

// PrepareUpdateForm returns the form filled in with the stored instance.
func (fs *FormService) PrepareUpdateForm(ctx context.Context, id string) (*FormPage, error) {
	instance, err := fs.instanceService.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &id})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return fs.formPage(ctx, updateTitle, valuesFromInstance(instance), nil)
}

func (fs *FormService) SubmitForCreate(ctx context.Context, raw *InstancePayload) (*Submission, error) {
	outcome, err := fs.workflow.SubmitForCreate(ctx, raw)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return fs.submission(ctx, createTitle, outcome)
}

// SubmitForUpdate replaces the instance with the given ID. A missing instance
// is reported as a not found error, not as a rejected form.
func (fs *FormService) SubmitForUpdate(ctx context.Context, id string, raw *InstancePayload) (*Submission, error) {
	outcome, err := fs.workflow.SubmitForUpdate(ctx, id, raw)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return fs.submission(ctx, updateTitle, outcome)
}

// PrepareDelete returns the delete confirmation page, or nil when there's
// nothing to delete.
func (fs *FormService) PrepareDelete(ctx context.Context, id string) (*DeletePage, error) {
	instance, err := fs.instanceService.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &id})
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}
	return &DeletePage{Title: deleteTitle, Instance: instance}, nil
}

// Delete removes the instance and returns where to go next.
func (fs *FormService) Delete(ctx context.Context, id string) (string, error) {
	if err := fs.instanceService.DeleteBookInstance(ctx, id); err != nil {
		return "", errors.WithStack(err)
	}
	return ListURL, nil
}

func (fs *FormService) submission(ctx context.Context, title string, outcome *formflow.Outcome[InstancePayload]) (*Submission, error) {
	if !outcome.Rejected {
		return &Submission{RedirectURL: outcome.RedirectURL}, nil
	}

	raw := outcome.Submission
	page, err := fs.formPage(ctx, title, &FormValues{
		Book:    raw.Book,
		Imprint: raw.Imprint,
		Status:  raw.Status,
		DueBack: raw.DueBack,
	}, outcome.Errors)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Submission{Page: page}, nil
}

// formPage loads the book choices fresh for every render.
func (fs *FormService) formPage(ctx context.Context, title string, values *FormValues, fieldErrs binder.FieldErrors) (*FormPage, error) {
	bookList, err := fs.bookService.ListBooks(ctx, books.ListBooksOptions{
		Columns: []string{"title"},
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	page := &FormPage{
		Title:    title,
		Books:    bookList,
		Instance: values,
		Errors:   fieldErrs,
		Statuses: models.BookInstanceStatuses,
	}
	if values != nil {
		page.SelectedBook = values.Book
	}
	return page, nil
}

func valuesFromInstance(instance *models.BookInstance) *FormValues {
	return &FormValues{
		Book:    instance.BookID,
		Imprint: instance.Imprint,
		Status:  instance.Status,
		DueBack: instance.DueBackISO(),
	}
}
