package books

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/htmlutil"
	"github.com/shishobooks/catalog/pkg/models"
)

const (
	ListTemplate   = "book_list"
	DetailTemplate = "book_detail"
)

type ListPage struct {
	Title  string
	Books  []*models.Book
	Total  int
	Limit  int
	Offset int
	Search string
}

type DetailPage struct {
	Title   string
	Book    *models.Book
	Summary string
}

type handler struct {
	bookService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	books, total, err := h.bookService.ListBooksWithTotal(ctx, ListBooksOptions{
		Columns: []string{"title", "author"},
		Limit:   &params.Limit,
		Offset:  &params.Offset,
		Search:  params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	page := ListPage{
		Title:  "Book List",
		Books:  books,
		Total:  total,
		Limit:  params.Limit,
		Offset: params.Offset,
	}
	if params.Search != nil {
		page.Search = *params.Search
	}

	return errors.WithStack(c.Render(http.StatusOK, ListTemplate, page))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	book, err := h.bookService.RetrieveBook(ctx, RetrieveBookOptions{
		ID:               &id,
		IncludeInstances: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	page := DetailPage{
		Title: "Title: " + book.Title,
		Book:  book,
	}
	if book.Summary != nil {
		page.Summary = htmlutil.StripTags(*book.Summary)
	}

	return errors.WithStack(c.Render(http.StatusOK, DetailTemplate, page))
}
