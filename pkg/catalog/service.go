// Package catalog is the persistence layer for registered entries.
package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/dlshelf/dlshelf/pkg/errcodes"
	"github.com/dlshelf/dlshelf/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortRandom = "random"
)

type RetrieveEntryOptions struct {
	ID         *int
	FolderPath *string
}

type ListEntriesOptions struct {
	Limit  *int
	Offset *int

	// Substring filters, case-insensitive. Title also matches against the
	// folder path, and Category also matches against tags, mirroring how
	// people actually search for these things.
	Identifier *string
	Title      *string
	Publisher  *string
	Category   *string

	Sort *string

	includeTotal bool
}

type UpdateEntryOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateEntry(ctx context.Context, entry *models.Entry) error {
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = entry.CreatedAt
	entry.FolderPath = filepath.Clean(entry.FolderPath)

	_, err := svc.db.
		NewInsert().
		Model(entry).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) RetrieveEntry(ctx context.Context, opts RetrieveEntryOptions) (*models.Entry, error) {
	entry := &models.Entry{}

	q := svc.db.
		NewSelect().
		Model(entry)

	if opts.ID != nil {
		q = q.Where("e.id = ?", *opts.ID)
	}
	if opts.FolderPath != nil {
		q = q.Where("e.folder_path = ?", filepath.Clean(*opts.FolderPath))
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Entry")
		}
		return nil, errors.WithStack(err)
	}

	return entry, nil
}

func (svc *Service) ListEntries(ctx context.Context, opts ListEntriesOptions) ([]*models.Entry, error) {
	entries, _, err := svc.listEntriesWithTotal(ctx, opts)
	return entries, errors.WithStack(err)
}

func (svc *Service) ListEntriesWithTotal(ctx context.Context, opts ListEntriesOptions) ([]*models.Entry, int, error) {
	opts.includeTotal = true
	return svc.listEntriesWithTotal(ctx, opts)
}

func (svc *Service) listEntriesWithTotal(ctx context.Context, opts ListEntriesOptions) ([]*models.Entry, int, error) {
	var entries []*models.Entry
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&entries)

	switch {
	case opts.Sort == nil || *opts.Sort == SortNewest:
		q = q.Order("e.id DESC")
	case *opts.Sort == SortOldest:
		q = q.Order("e.id ASC")
	case *opts.Sort == SortRandom:
		q = q.OrderExpr("RANDOM()")
	default:
		q = q.Order("e.id DESC")
	}

	if opts.Identifier != nil && *opts.Identifier != "" {
		q = q.Where("LOWER(e.identifier) LIKE ?", like(*opts.Identifier))
	}
	if opts.Title != nil && *opts.Title != "" {
		q = q.Where("(LOWER(e.title) LIKE ? OR LOWER(e.folder_path) LIKE ?)", like(*opts.Title), like(*opts.Title))
	}
	if opts.Publisher != nil && *opts.Publisher != "" {
		q = q.Where("LOWER(e.publisher) LIKE ?", like(*opts.Publisher))
	}
	if opts.Category != nil && *opts.Category != "" {
		q = q.Where("(LOWER(e.category) LIKE ? OR LOWER(e.tags) LIKE ?)", like(*opts.Category), like(*opts.Category))
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return entries, total, nil
}

func (svc *Service) UpdateEntry(ctx context.Context, entry *models.Entry, opts UpdateEntryOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	now := time.Now()
	entry.UpdatedAt = now
	columns := append(opts.Columns, "updated_at")

	_, err := svc.db.
		NewUpdate().
		Model(entry).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errcodes.NotFound("Entry")
		}
		return errors.WithStack(err)
	}
	return nil
}

func (svc *Service) DeleteEntry(ctx context.Context, entryID int) error {
	_, err := svc.db.
		NewDelete().
		Model((*models.Entry)(nil)).
		Where("id = ?", entryID).
		Exec(ctx)
	return errors.WithStack(err)
}

// ListFolderPaths returns the set of registered folder paths, normalized with
// filepath.Clean. The scan pipeline preloads this to skip known folders.
func (svc *Service) ListFolderPaths(ctx context.Context) (map[string]struct{}, error) {
	var paths []string

	err := svc.db.
		NewSelect().
		Model((*models.Entry)(nil)).
		Column("folder_path").
		Scan(ctx, &paths)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[filepath.Clean(p)] = struct{}{}
	}
	return set, nil
}

// FindDuplicateIdentifiers returns groups of entries that share an
// identifier. Each group holds at least two entries; singletons never appear.
func (svc *Service) FindDuplicateIdentifiers(ctx context.Context) ([][]*models.Entry, error) {
	var codes []string

	err := svc.db.
		NewSelect().
		Model((*models.Entry)(nil)).
		Column("identifier").
		Group("identifier").
		Having("COUNT(*) > 1").
		Order("identifier ASC").
		Scan(ctx, &codes)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if len(codes) == 0 {
		return nil, nil
	}

	var entries []*models.Entry
	err = svc.db.
		NewSelect().
		Model(&entries).
		Where("e.identifier IN (?)", bun.In(codes)).
		Order("e.identifier ASC", "e.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	groups := make([][]*models.Entry, 0, len(codes))
	byCode := make(map[string]int, len(codes))
	for _, entry := range entries {
		i, ok := byCode[entry.Identifier]
		if !ok {
			byCode[entry.Identifier] = len(groups)
			groups = append(groups, []*models.Entry{entry})
			continue
		}
		groups[i] = append(groups[i], entry)
	}

	return groups, nil
}

func like(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
