package entries

import (
	"github.com/dlshelf/dlshelf/pkg/catalog"
	"github.com/dlshelf/dlshelf/pkg/config"
	"github.com/dlshelf/dlshelf/pkg/prefetch"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers entry routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, cfg *config.Config, db *bun.DB, dispatcher *prefetch.Dispatcher) {
	catalogService := catalog.NewService(db)

	h := &handler{
		config:         cfg,
		catalogService: catalogService,
		dispatcher:     dispatcher,
	}

	g.GET("", h.list)
	g.GET("/duplicates", h.duplicates)
	g.POST("/manual", h.createManual)
	g.GET("/:id", h.retrieve)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.deleteEntry)
	g.POST("/:id/executable", h.chooseExecutable)
	g.GET("/:id/thumbnails/:index", h.thumbnail)
}
