package watchpaths

import (
	"net/http"
	"strconv"

	"github.com/dlshelf/dlshelf/pkg/errcodes"
	"github.com/dlshelf/dlshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	watchPathService *Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateWatchPathPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	watchPath := &models.WatchPath{
		Filepath: params.Filepath,
	}

	err := h.watchPathService.CreateWatchPath(ctx, watchPath)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, watchPath))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListWatchPathsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	watchPaths, err := h.watchPathService.ListWatchPaths(ctx, ListWatchPathsOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		WatchPaths []*models.WatchPath `json:"watch_paths"`
	}{watchPaths}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) deleteWatchPath(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Watch path")
	}

	watchPath, err := h.watchPathService.RetrieveWatchPath(ctx, RetrieveWatchPathOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	err = h.watchPathService.DeleteWatchPath(ctx, watchPath.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
