package catalog

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/catalog/pkg/bookinstances"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/uptrace/bun"
)

func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	h := &handler{
		bookService:     books.NewService(db),
		instanceService: bookinstances.NewService(db),
	}

	g.GET("", h.index)
}
