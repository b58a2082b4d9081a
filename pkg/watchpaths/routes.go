package watchpaths

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers watch path routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB) {
	watchPathService := NewService(db)

	h := &handler{
		watchPathService: watchPathService,
	}

	g.GET("", h.list)
	g.POST("", h.create)
	g.DELETE("/:id", h.deleteWatchPath)
}
