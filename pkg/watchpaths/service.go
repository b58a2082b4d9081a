// Package watchpaths manages the root directories scanned for entry folders.
package watchpaths

import (
	"context"
	"database/sql"
	"path/filepath"
	"time"

	"github.com/dlshelf/dlshelf/pkg/errcodes"
	"github.com/dlshelf/dlshelf/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveWatchPathOptions struct {
	ID       *int
	Filepath *string
}

type ListWatchPathsOptions struct {
	Limit  *int
	Offset *int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateWatchPath(ctx context.Context, watchPath *models.WatchPath) error {
	now := time.Now()
	if watchPath.CreatedAt.IsZero() {
		watchPath.CreatedAt = now
	}
	watchPath.UpdatedAt = watchPath.CreatedAt
	watchPath.Filepath = filepath.Clean(watchPath.Filepath)

	// Reject a path that's already watched; scanning the same root twice
	// would just double the work.
	_, err := svc.RetrieveWatchPath(ctx, RetrieveWatchPathOptions{Filepath: &watchPath.Filepath})
	if err == nil {
		return errcodes.ValidationError("This path is already being watched.")
	}
	if !errors.Is(err, errcodes.NotFound("Watch path")) {
		return err
	}

	_, err = svc.db.
		NewInsert().
		Model(watchPath).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveWatchPath(ctx context.Context, opts RetrieveWatchPathOptions) (*models.WatchPath, error) {
	watchPath := &models.WatchPath{}

	q := svc.db.
		NewSelect().
		Model(watchPath)

	if opts.ID != nil {
		q = q.Where("wp.id = ?", *opts.ID)
	}
	if opts.Filepath != nil {
		q = q.Where("wp.filepath = ?", filepath.Clean(*opts.Filepath))
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Watch path")
		}
		return nil, errors.WithStack(err)
	}

	return watchPath, nil
}

func (svc *Service) ListWatchPaths(ctx context.Context, opts ListWatchPathsOptions) ([]*models.WatchPath, error) {
	watchPaths := []*models.WatchPath{}

	q := svc.db.
		NewSelect().
		Model(&watchPaths).
		Order("wp.id ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return watchPaths, nil
}

func (svc *Service) DeleteWatchPath(ctx context.Context, watchPathID int) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.WatchPath)(nil)).
		Where("id = ?", watchPathID).
		Exec(ctx)
	return errors.WithStack(err)
}
