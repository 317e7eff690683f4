package bookinstances

import (
	"context"
	"testing"

	"github.com/shishobooks/catalog/internal/testgen"
	"github.com/shishobooks/catalog/pkg/binder"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newFormService(t *testing.T, db *bun.DB) *FormService {
	t.Helper()
	b, err := binder.New()
	require.NoError(t, err)
	return NewFormService(NewService(db), books.NewService(db), b)
}

func TestSubmitForCreate_Valid(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)
	ctx := context.Background()
	book := createBook(t, db, "Mort")

	sub, err := fs.SubmitForCreate(ctx, &InstancePayload{
		Book:    book.ID,
		Imprint: "  Penguin, 2001 ",
		Status:  models.BookInstanceStatusAvailable,
		DueBack: "2024-05-01",
	})
	require.NoError(t, err)
	require.Nil(t, sub.Page)
	require.Regexp(t, `^/catalog/bookinstance/[0-9a-f-]{36}$`, sub.RedirectURL)

	instances, err := fs.instanceService.ListBookInstances(ctx, ListBookInstancesOptions{})
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, instances[0].URL(), sub.RedirectURL)
	assert.Equal(t, "Penguin, 2001", instances[0].Imprint)
	assert.Equal(t, models.BookInstanceStatusAvailable, instances[0].Status)
	assert.Equal(t, "2024-05-01", instances[0].DueBackISO())
}

func TestSubmitForCreate_DefaultsStatus(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)
	ctx := context.Background()
	book := createBook(t, db, "Mort")

	sub, err := fs.SubmitForCreate(ctx, &InstancePayload{Book: book.ID, Imprint: "Corgi"})
	require.NoError(t, err)
	require.Nil(t, sub.Page)

	instances, err := fs.instanceService.ListBookInstances(ctx, ListBookInstancesOptions{})
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, models.BookInstanceStatusMaintenance, instances[0].Status)
	assert.Nil(t, instances[0].DueBack)
}

func TestSubmitForCreate_Invalid(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)
	ctx := context.Background()
	createBook(t, db, "Mort")
	createBook(t, db, "Eric")

	sub, err := fs.SubmitForCreate(ctx, &InstancePayload{
		Book:    "",
		Imprint: "   ",
		DueBack: "not-a-date",
	})
	require.NoError(t, err)
	require.NotNil(t, sub.Page)
	assert.Empty(t, sub.RedirectURL)

	page := sub.Page
	assert.Equal(t, "Create BookInstance", page.Title)
	require.Len(t, page.Errors, 3)
	assert.Equal(t, binder.FieldError{Field: "book", Message: "Book must be specified", Value: ""}, page.Errors[0])
	assert.Equal(t, binder.FieldError{Field: "imprint", Message: "Imprint must be specified", Value: ""}, page.Errors[1])
	assert.Equal(t, binder.FieldError{Field: "due_back", Message: "Invalid date", Value: "not-a-date"}, page.Errors[2])

	require.Len(t, page.Books, 2)
	assert.Equal(t, "Eric", page.Books[0].Title)
	assert.Equal(t, "Mort", page.Books[1].Title)
	assert.Equal(t, "not-a-date", page.Instance.DueBack)
	assert.Equal(t, models.BookInstanceStatuses, page.Statuses)

	assert.Equal(t, 0, countInstances(t, fs.instanceService))
}

func TestSubmitForCreate_InvalidStatus(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)
	book := createBook(t, db, "Mort")

	sub, err := fs.SubmitForCreate(context.Background(), &InstancePayload{Book: book.ID, Imprint: "Corgi", Status: "Lost"})
	require.NoError(t, err)
	require.NotNil(t, sub.Page)
	require.Len(t, sub.Page.Errors, 1)
	assert.Equal(t, "status", sub.Page.Errors[0].Field)
	assert.Equal(t, "Invalid status", sub.Page.Errors[0].Message)
	assert.Equal(t, book.ID, sub.Page.SelectedBook)
	assert.Equal(t, 0, countInstances(t, fs.instanceService))
}

func TestSubmitForCreate_EscapesMarkup(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)
	ctx := context.Background()
	book := createBook(t, db, "Mort")

	sub, err := fs.SubmitForCreate(ctx, &InstancePayload{Book: book.ID, Imprint: "<b>Corgi</b>", DueBack: "bad"})
	require.NoError(t, err)
	require.NotNil(t, sub.Page)
	assert.Equal(t, "&lt;b&gt;Corgi&lt;&#x2F;b&gt;", sub.Page.Instance.Imprint)

	sub, err = fs.SubmitForCreate(ctx, &InstancePayload{Book: book.ID, Imprint: "<b>Corgi</b>"})
	require.NoError(t, err)
	require.Nil(t, sub.Page)

	instances, err := fs.instanceService.ListBookInstances(ctx, ListBookInstancesOptions{})
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Equal(t, "&lt;b&gt;Corgi&lt;&#x2F;b&gt;", instances[0].Imprint)
}

func TestSubmitForCreate_UnknownBookFails(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)

	sub, err := fs.SubmitForCreate(context.Background(), &InstancePayload{Book: "missing", Imprint: "Corgi"})
	require.Error(t, err)
	assert.Nil(t, sub)
	assert.Equal(t, 0, countInstances(t, fs.instanceService))
}

func TestSubmitForUpdate(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)
	ctx := context.Background()
	mort := createBook(t, db, "Mort")
	eric := createBook(t, db, "Eric")
	instance := createInstance(t, fs.instanceService, mort.ID, "Corgi", models.BookInstanceStatusAvailable)

	sub, err := fs.SubmitForUpdate(ctx, instance.ID, &InstancePayload{
		Book:    eric.ID,
		Imprint: "Gollancz",
		Status:  models.BookInstanceStatusLoaned,
		DueBack: "2024-06-30T10:00:00Z",
	})
	require.NoError(t, err)
	require.Nil(t, sub.Page)
	assert.Equal(t, instance.URL(), sub.RedirectURL)

	got, err := fs.instanceService.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &instance.ID})
	require.NoError(t, err)
	assert.Equal(t, eric.ID, got.BookID)
	assert.Equal(t, "Gollancz", got.Imprint)
	assert.Equal(t, models.BookInstanceStatusLoaned, got.Status)
	assert.Equal(t, "2024-06-30", got.DueBackISO())
	assert.Equal(t, 1, countInstances(t, fs.instanceService))
}

func TestSubmitForUpdate_Invalid(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)
	ctx := context.Background()
	book := createBook(t, db, "Mort")
	instance := createInstance(t, fs.instanceService, book.ID, "Corgi", models.BookInstanceStatusAvailable)

	sub, err := fs.SubmitForUpdate(ctx, instance.ID, &InstancePayload{Book: book.ID})
	require.NoError(t, err)
	require.NotNil(t, sub.Page)
	assert.Equal(t, "Update BookInstance", sub.Page.Title)
	require.Len(t, sub.Page.Errors, 1)
	assert.Equal(t, "Imprint must be specified", sub.Page.Errors[0].Message)

	got, err := fs.instanceService.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &instance.ID})
	require.NoError(t, err)
	assert.Equal(t, "Corgi", got.Imprint)
}

func TestSubmitForUpdate_NotFound(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)
	book := createBook(t, db, "Mort")

	sub, err := fs.SubmitForUpdate(context.Background(), "missing", &InstancePayload{Book: book.ID, Imprint: "Corgi"})
	require.Error(t, err)
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, errcodes.NotFound("Book instance"))
	assert.Equal(t, 0, countInstances(t, fs.instanceService))
}

func TestPrepareCreateForm(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)
	createBook(t, db, "Mort")
	createBook(t, db, "Eric")

	page, err := fs.PrepareCreateForm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Create BookInstance", page.Title)
	require.Len(t, page.Books, 2)
	assert.Equal(t, "Eric", page.Books[0].Title)
	assert.Nil(t, page.Instance)
	assert.Empty(t, page.Errors)
	assert.Empty(t, page.SelectedBook)
}

func TestPrepareUpdateForm_RoundTrip(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)
	ctx := context.Background()
	book := createBook(t, db, "Mort")

	sub, err := fs.SubmitForCreate(ctx, &InstancePayload{
		Book:    book.ID,
		Imprint: "Corgi",
		Status:  models.BookInstanceStatusReserved,
		DueBack: "2024-05-01",
	})
	require.NoError(t, err)
	require.Nil(t, sub.Page)

	instances, err := fs.instanceService.ListBookInstances(ctx, ListBookInstancesOptions{})
	require.NoError(t, err)
	require.Len(t, instances, 1)

	page, err := fs.PrepareUpdateForm(ctx, instances[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Update BookInstance", page.Title)
	assert.Equal(t, book.ID, page.SelectedBook)
	assert.Equal(t, &FormValues{
		Book:    book.ID,
		Imprint: "Corgi",
		Status:  models.BookInstanceStatusReserved,
		DueBack: "2024-05-01",
	}, page.Instance)
}

func TestPrepareUpdateForm_NotFound(t *testing.T) {
	t.Parallel()
	fs := newFormService(t, testgen.NewDB(t))

	page, err := fs.PrepareUpdateForm(context.Background(), "missing")
	require.Error(t, err)
	assert.Nil(t, page)
	assert.ErrorIs(t, err, errcodes.NotFound("Book instance"))
}

func TestPrepareDelete(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)
	ctx := context.Background()
	book := createBook(t, db, "Mort")
	instance := createInstance(t, fs.instanceService, book.ID, "Corgi", models.BookInstanceStatusAvailable)

	page, err := fs.PrepareDelete(ctx, instance.ID)
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, "Delete BookInstance", page.Title)
	assert.Equal(t, instance.ID, page.Instance.ID)
	assert.Equal(t, "Mort", page.Instance.Book.Title)

	page, err = fs.PrepareDelete(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, page)
}

func TestDelete_Idempotent(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	fs := newFormService(t, db)
	ctx := context.Background()
	book := createBook(t, db, "Mort")
	instance := createInstance(t, fs.instanceService, book.ID, "Corgi", models.BookInstanceStatusAvailable)

	next, err := fs.Delete(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, ListURL, next)

	next, err = fs.Delete(ctx, instance.ID)
	require.NoError(t, err)
	assert.Equal(t, ListURL, next)

	assert.Equal(t, 0, countInstances(t, fs.instanceService))
}
