package entries

import (
	"image/jpeg"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/dlshelf/dlshelf/pkg/catalog"
	"github.com/dlshelf/dlshelf/pkg/config"
	"github.com/dlshelf/dlshelf/pkg/errcodes"
	"github.com/dlshelf/dlshelf/pkg/identifier"
	"github.com/dlshelf/dlshelf/pkg/models"
	"github.com/dlshelf/dlshelf/pkg/prefetch"
	"github.com/dlshelf/dlshelf/pkg/trash"
	"github.com/dlshelf/dlshelf/pkg/worker"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// thumbnailSlots is how many cached images each entry can have.
const thumbnailSlots = 5

// thumbnailTimeout bounds how long a request waits on the prefetch pool.
const thumbnailTimeout = 10 * time.Second

type handler struct {
	config         *config.Config
	catalogService *catalog.Service
	dispatcher     *prefetch.Dispatcher
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListEntriesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entries, total, err := h.catalogService.ListEntriesWithTotal(ctx, catalog.ListEntriesOptions{
		Limit:      &params.Limit,
		Offset:     &params.Offset,
		Identifier: params.Identifier,
		Title:      params.Title,
		Publisher:  params.Publisher,
		Category:   params.Category,
		Sort:       params.Sort,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Entries []*models.Entry `json:"entries"`
		Total   int             `json:"total"`
	}{entries, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Entry")
	}

	entry, err := h.catalogService.RetrieveEntry(ctx, catalog.RetrieveEntryOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}
	entry.ResolveCoverImage()

	return errors.WithStack(c.JSON(http.StatusOK, entry))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Entry")
	}

	params := UpdateEntryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entry, err := h.catalogService.RetrieveEntry(ctx, catalog.RetrieveEntryOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	columns := []string{}
	if params.Title != nil {
		entry.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.Publisher != nil {
		entry.Publisher = *params.Publisher
		columns = append(columns, "publisher")
	}
	if params.Category != nil {
		entry.Category = *params.Category
		columns = append(columns, "category")
	}
	if params.Tags != nil {
		entry.Tags = *params.Tags
		columns = append(columns, "tags")
	}
	if params.Rating != nil {
		entry.Rating = *params.Rating
		columns = append(columns, "rating")
	}

	err = h.catalogService.UpdateEntry(ctx, entry, catalog.UpdateEntryOptions{Columns: columns})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, entry))
}

// deleteEntry moves the entry's folder into the trash directory and drops the
// row. The folder move is recoverable; the row isn't.
func (h *handler) deleteEntry(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Entry")
	}

	entry, err := h.catalogService.RetrieveEntry(ctx, catalog.RetrieveEntryOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	if _, err := os.Stat(entry.FolderPath); err == nil {
		dest, err := trash.Move(entry.FolderPath, h.config.TrashDir)
		if err != nil {
			return errors.WithStack(err)
		}
		log := logger.FromContext(ctx)
		log.Info("moved folder to trash", logger.Data{"entry_id": entry.ID, "dest": dest})
	}

	err = h.catalogService.DeleteEntry(ctx, entry.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) duplicates(c echo.Context) error {
	ctx := c.Request().Context()

	groups, err := h.catalogService.FindDuplicateIdentifiers(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Groups [][]*models.Entry `json:"groups"`
	}{groups}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// createManual registers a folder that carries no recognizable identifier.
// It gets a synthetic code and whatever executables are on disk right now.
func (h *handler) createManual(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateManualEntryPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	info, err := os.Stat(params.FolderPath)
	if err != nil || !info.IsDir() {
		return errcodes.ValidationError("folder_path must be an existing directory.")
	}

	if _, err := h.catalogService.RetrieveEntry(ctx, catalog.RetrieveEntryOptions{FolderPath: &params.FolderPath}); err == nil {
		return errcodes.ValidationError("This folder is already registered.")
	}

	executables, err := worker.FindExecutables(params.FolderPath)
	if err != nil {
		return errors.WithStack(err)
	}

	entry := &models.Entry{
		Identifier:  identifier.NewManualCode(time.Now()),
		Title:       info.Name(),
		Publisher:   "Unknown",
		FolderPath:  params.FolderPath,
		Executables: executables,
	}
	if params.Title != nil {
		entry.Title = *params.Title
	}
	if params.Publisher != nil {
		entry.Publisher = *params.Publisher
	}
	if params.Category != nil {
		entry.Category = *params.Category
	}
	if params.Tags != nil {
		entry.Tags = *params.Tags
	}

	err = h.catalogService.CreateEntry(ctx, entry)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, entry))
}

// chooseExecutable collapses the entry's executable list to the one the user
// picked.
func (h *handler) chooseExecutable(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Entry")
	}

	params := ChooseExecutablePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entry, err := h.catalogService.RetrieveEntry(ctx, catalog.RetrieveEntryOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	found := false
	for _, exe := range entry.Executables {
		if exe == params.Executable {
			found = true
			break
		}
	}
	if !found {
		return errcodes.ValidationError("Executable is not one of the entry's discovered executables.")
	}

	entry.Executables = models.StringList{params.Executable}

	err = h.catalogService.UpdateEntry(ctx, entry, catalog.UpdateEntryOptions{Columns: []string{"executables"}})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, entry))
}

// thumbnail serves one cached cover image, resized through the prefetch pool.
func (h *handler) thumbnail(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Entry")
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index >= thumbnailSlots {
		return errcodes.NotFound("Thumbnail")
	}

	params := ThumbnailQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	entry, err := h.catalogService.RetrieveEntry(ctx, catalog.RetrieveEntryOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	path := entry.ThumbPath(index)
	if _, err := os.Stat(path); err != nil {
		return errcodes.NotFound("Thumbnail")
	}

	handle := uuid.New().String()
	ch, ok := h.dispatcher.Await(prefetch.Request{
		Handle: handle,
		Path:   path,
		Width:  params.Width,
		Height: params.Height,
	})
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Thumbnail queue is full")
	}

	select {
	case img := <-ch:
		c.Response().Header().Set("Content-Type", "image/jpeg")
		c.Response().Header().Set("Cache-Control", "public, max-age=86400")
		c.Response().WriteHeader(http.StatusOK)
		return errors.WithStack(jpeg.Encode(c.Response().Writer, img, &jpeg.Options{Quality: 80}))
	case <-time.After(thumbnailTimeout):
		h.dispatcher.Cancel(handle)
		// The file existed but never decoded into a delivery.
		return errcodes.NotFound("Thumbnail")
	case <-ctx.Done():
		h.dispatcher.Cancel(handle)
		return errors.WithStack(ctx.Err())
	}
}
