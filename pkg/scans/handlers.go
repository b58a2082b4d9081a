package scans

import (
	"net/http"
	"strconv"

	"github.com/dlshelf/dlshelf/pkg/errcodes"
	"github.com/dlshelf/dlshelf/pkg/jobs"
	"github.com/dlshelf/dlshelf/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	jobService *jobs.Service
}

// create triggers a scan run. Only one scan can be pending or in progress at
// a time; a second trigger conflicts instead of queueing up.
func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	hasActive, err := h.jobService.HasActiveJobByType(ctx, models.JobTypeScan)
	if err != nil {
		return errors.WithStack(err)
	}
	if hasActive {
		return errcodes.Conflict("A scan is already running or pending.")
	}

	job := &models.Job{
		Type:       models.JobTypeScan,
		Status:     models.JobStatusPending,
		DataParsed: &models.ScanReport{},
	}

	err = h.jobService.CreateJob(ctx, job)
	if err != nil {
		return errors.WithStack(err)
	}

	job, err = h.jobService.RetrieveJob(ctx, jobs.RetrieveJobOptions{ID: &job.ID})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, job))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Scan")
	}

	job, err := h.jobService.RetrieveJob(ctx, jobs.RetrieveJobOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}
	if job.Type != models.JobTypeScan {
		return errcodes.NotFound("Scan")
	}

	return errors.WithStack(c.JSON(http.StatusOK, job))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListScansQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	scanJobs, total, err := h.jobService.ListJobsWithTotal(ctx, jobs.ListJobsOptions{
		Limit:    &params.Limit,
		Offset:   &params.Offset,
		Statuses: params.Status,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Scans []*models.Job `json:"scans"`
		Total int           `json:"total"`
	}{scanJobs, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
