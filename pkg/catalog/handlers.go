package catalog

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/shishobooks/catalog/pkg/bookinstances"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/models"
)

const IndexTemplate = "index"

type IndexPage struct {
	Title          string
	BookCount      int
	InstanceCount  int
	AvailableCount int
}

type handler struct {
	bookService     *books.Service
	instanceService *bookinstances.Service
}

func (h *handler) index(c echo.Context) error {
	ctx := c.Request().Context()

	bookCount, err := h.bookService.CountBooks(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	instanceCount, err := h.instanceService.CountBookInstances(ctx, bookinstances.CountBookInstancesOptions{})
	if err != nil {
		return errors.WithStack(err)
	}
	availableCount, err := h.instanceService.CountBookInstances(ctx, bookinstances.CountBookInstancesOptions{
		Status: pointerutil.String(models.BookInstanceStatusAvailable),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.Render(http.StatusOK, IndexTemplate, IndexPage{
		Title:          "Local Library Home",
		BookCount:      bookCount,
		InstanceCount:  instanceCount,
		AvailableCount: availableCount,
	}))
}
