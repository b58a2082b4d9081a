package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dlshelf/dlshelf/pkg/binder"
	"github.com/dlshelf/dlshelf/pkg/config"
	"github.com/dlshelf/dlshelf/pkg/entries"
	"github.com/dlshelf/dlshelf/pkg/errcodes"
	"github.com/dlshelf/dlshelf/pkg/filesystem"
	"github.com/dlshelf/dlshelf/pkg/prefetch"
	"github.com/dlshelf/dlshelf/pkg/scans"
	"github.com/dlshelf/dlshelf/pkg/watchpaths"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB, dispatcher *prefetch.Dispatcher) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	entries.RegisterRoutesWithGroup(e.Group("/entries"), cfg, db, dispatcher)
	scans.RegisterRoutesWithGroup(e.Group("/scans"), db)
	watchpaths.RegisterRoutesWithGroup(e.Group("/watchpaths"), db)
	filesystem.RegisterRoutes(e)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
