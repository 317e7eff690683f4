package bookinstances

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/binder"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
)

const (
	FormTemplate   = "bookinstance_form"
	DeleteTemplate = "bookinstance_delete"
	ListTemplate   = "bookinstance_list"
	DetailTemplate = "bookinstance_detail"
)

type ListPage struct {
	Title     string
	Instances []*models.BookInstance
	Total     int
	Limit     int
	Offset    int
	Status    string
	Statuses  []string
}

type DetailPage struct {
	Title    string
	Instance *models.BookInstance
}

type handler struct {
	binder          *binder.Binder
	instanceService *Service
	formService     *FormService
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBookInstancesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListBookInstancesOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
	}
	if params.Status != "" {
		opts.Status = &params.Status
	}

	instances, total, err := h.instanceService.ListBookInstancesWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Render(http.StatusOK, ListTemplate, ListPage{
		Title:     "Book Instance List",
		Instances: instances,
		Total:     total,
		Limit:     params.Limit,
		Offset:    params.Offset,
		Status:    params.Status,
		Statuses:  models.BookInstanceStatuses,
	}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	instance, err := h.instanceService.RetrieveBookInstance(ctx, RetrieveBookInstanceOptions{ID: &id})
	if err != nil {
		if errors.Is(err, errNotFound) {
			return errcodes.NotFound("Book copy")
		}
		return errors.WithStack(err)
	}

	title := "Copy"
	if instance.Book != nil {
		title = "Copy: " + instance.Book.Title
	}

	return errors.WithStack(c.Render(http.StatusOK, DetailTemplate, DetailPage{
		Title:    title,
		Instance: instance,
	}))
}

func (h *handler) createForm(c echo.Context) error {
	page, err := h.formService.PrepareCreateForm(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.Render(http.StatusOK, FormTemplate, page))
}

func (h *handler) create(c echo.Context) error {
	raw, err := h.decodeSubmission(c)
	if err != nil {
		return err
	}

	sub, err := h.formService.SubmitForCreate(c.Request().Context(), &raw)
	if err != nil {
		return errors.WithStack(err)
	}
	return h.respond(c, sub)
}

// decodeSubmission reads the posted form. An empty body is a submission with
// every field absent, so it goes through the checks like any other.
func (h *handler) decodeSubmission(c echo.Context) (InstancePayload, error) {
	raw := InstancePayload{}
	c.Set("disallow_empty_body", false)
	if err := h.binder.Decode(&raw, c); err != nil {
		return raw, errors.WithStack(err)
	}
	return raw, nil
}

func (h *handler) updateForm(c echo.Context) error {
	page, err := h.formService.PrepareUpdateForm(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.Render(http.StatusOK, FormTemplate, page))
}

func (h *handler) update(c echo.Context) error {
	raw, err := h.decodeSubmission(c)
	if err != nil {
		return err
	}

	sub, err := h.formService.SubmitForUpdate(c.Request().Context(), c.Param("id"), &raw)
	if err != nil {
		return errors.WithStack(err)
	}
	return h.respond(c, sub)
}

func (h *handler) deleteForm(c echo.Context) error {
	page, err := h.formService.PrepareDelete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errors.WithStack(err)
	}
	if page == nil {
		return errors.WithStack(c.Redirect(http.StatusFound, ListURL))
	}
	return errors.WithStack(c.Render(http.StatusOK, DeleteTemplate, page))
}

func (h *handler) deleteInstance(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		id = c.FormValue("bookinstanceid")
	}
	if id == "" {
		return errcodes.BadRequest("Book instance must be specified")
	}

	next, err := h.formService.Delete(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(c.Redirect(http.StatusFound, next))
}

// respond re-renders a rejected form with a 200 so the browser shows the
// errors in place.
func (h *handler) respond(c echo.Context, sub *Submission) error {
	if sub.Page != nil {
		return errors.WithStack(c.Render(http.StatusOK, FormTemplate, sub.Page))
	}
	return errors.WithStack(c.Redirect(http.StatusFound, sub.RedirectURL))
}
