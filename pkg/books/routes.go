package books

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on the catalog group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	bookService := NewService(db)

	h := &handler{
		bookService: bookService,
	}

	g.GET("/books", h.list)
	g.GET("/book/:id", h.retrieve)
}
