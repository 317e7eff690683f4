package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/shishobooks/catalog/pkg/binder"
	"github.com/shishobooks/catalog/pkg/bookinstances"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/catalog"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/views"
	"github.com/uptrace/bun"
)

// Form posts are small; anything bigger is a mistake or abuse.
const bodyLimit = "1M"

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e, err := newEcho(db)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(db *bun.DB) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b
	e.JSONSerializer = binder.JSONSerializer{}

	renderer, err := views.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Renderer = renderer

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit(bodyLimit))

	health.RegisterRoutes(e)

	e.GET("/", func(c echo.Context) error {
		return errors.WithStack(c.Redirect(http.StatusFound, "/catalog"))
	})

	catalogGroup := e.Group("/catalog")
	catalog.RegisterRoutesWithGroup(catalogGroup, db)
	books.RegisterRoutesWithGroup(catalogGroup, db)
	bookinstances.RegisterRoutesWithGroup(catalogGroup, db, b)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
