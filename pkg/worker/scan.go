package worker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dlshelf/dlshelf/pkg/identifier"
	"github.com/dlshelf/dlshelf/pkg/jobs"
	"github.com/dlshelf/dlshelf/pkg/metadata"
	"github.com/dlshelf/dlshelf/pkg/models"
	"github.com/dlshelf/dlshelf/pkg/watchpaths"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

// Source fetches remote metadata for an identifier. Satisfied by
// *metadata.Client; mocked in tests.
type Source interface {
	Fetch(ctx context.Context, code string) (*metadata.Metadata, error)
}

// CoverCache caches cover images for a folder. Satisfied by
// *assetcache.Cache; mocked in tests.
type CoverCache interface {
	EnsureCoverImage(ctx context.Context, folderPath string, urls []string) (string, error)
}

// ProcessScanJob walks every watch path and registers the entry folders it
// finds. Each folder ends up in exactly one report bucket; per-folder
// failures never abort the run.
func (w *Worker) ProcessScanJob(ctx context.Context, job *models.Job) error {
	log := logger.FromContext(ctx)
	log.Info("processing scan job")

	report := &models.ScanReport{}

	// Preload the registered paths so rescans skip known folders without
	// hitting the network.
	known, err := w.catalogService.ListFolderPaths(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	roots, err := w.watchPathService.ListWatchPaths(ctx, watchpaths.ListWatchPathsOptions{})
	if err != nil {
		return errors.WithStack(err)
	}

	log.Info("processing watch paths", logger.Data{"count": len(roots)})

	for _, root := range roots {
		log := log.Data(logger.Data{"watch_path_id": root.ID, "watch_path": root.Filepath})

		dirents, err := os.ReadDir(root.Filepath)
		if err != nil {
			// A watch path that points at an unmounted drive shouldn't take
			// the whole run down.
			log.Err(err).Warn("can't read watch path, skipping")
			continue
		}

		for _, dirent := range dirents {
			if !dirent.IsDir() {
				continue
			}
			folder := filepath.Clean(filepath.Join(root.Filepath, dirent.Name()))
			w.scanFolder(ctx, folder, dirent.Name(), known, report)
		}
	}

	data, err := json.Marshal(report)
	if err != nil {
		return errors.WithStack(err)
	}
	job.Data = string(data)

	err = w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{Columns: []string{"data"}})
	if err != nil {
		return errors.WithStack(err)
	}

	log.Info("finished scan job", logger.Data{
		"registered":        report.Registered,
		"skipped":           len(report.Skipped),
		"no_identifier":     len(report.NoIdentifier),
		"enrichment_failed": len(report.EnrichmentFailed),
		"no_executable":     len(report.NoExecutable),
	})
	return nil
}

func (w *Worker) scanFolder(ctx context.Context, folder, name string, known map[string]struct{}, report *models.ScanReport) {
	log := logger.FromContext(ctx).Data(logger.Data{"folder": folder})

	if _, ok := known[folder]; ok {
		report.Skipped = append(report.Skipped, folder)
		return
	}

	code, ok := identifier.Extract(name)
	if !ok {
		log.Info("no identifier in folder name")
		report.NoIdentifier = append(report.NoIdentifier, folder)
		return
	}

	md, err := w.source.Fetch(ctx, code)
	if err != nil {
		log.Err(err).Warn("metadata fetch failed", logger.Data{"identifier": code})
		report.EnrichmentFailed = append(report.EnrichmentFailed, folder)
		return
	}

	coverPath, err := w.covers.EnsureCoverImage(ctx, folder, md.ImageURLs)
	if err != nil {
		// An entry without a cover is still worth registering.
		log.Err(err).Warn("cover caching failed", logger.Data{"identifier": code})
		coverPath = ""
	}

	executables, err := FindExecutables(folder)
	if err != nil {
		log.Err(err).Warn("executable discovery failed")
		report.NoExecutable = append(report.NoExecutable, folder)
		return
	}
	if len(executables) == 0 {
		// Not persisted; the folder gets revisited on the next run in case
		// it was still extracting.
		log.Info("no executable found", logger.Data{"identifier": code})
		report.NoExecutable = append(report.NoExecutable, folder)
		return
	}

	entry := &models.Entry{
		Identifier:  code,
		Title:       md.Title,
		Publisher:   md.Publisher,
		Category:    strings.Join(md.Categories, ","),
		Tags:        strings.Join(md.Genres, ","),
		Rating:      md.Rating,
		FolderPath:  folder,
		Executables: executables,
	}
	if coverPath != "" {
		entry.CoverImagePath = &coverPath
	}

	if err := w.catalogService.CreateEntry(ctx, entry); err != nil {
		log.Err(err).Error("create entry error", logger.Data{"identifier": code})
		report.EnrichmentFailed = append(report.EnrichmentFailed, folder)
		return
	}

	known[folder] = struct{}{}
	report.Registered++
	log.Info("registered entry", logger.Data{"identifier": code, "entry_id": entry.ID})
}

// FindExecutables walks the folder recursively and returns all .exe files as
// folder-relative paths, in lexical walk order. Manual registration uses it
// too, so it's exported.
func FindExecutables(folder string) (models.StringList, error) {
	var executables models.StringList

	err := filepath.WalkDir(folder, func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if info.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".exe") {
			return nil
		}

		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return errors.WithStack(err)
		}
		executables = append(executables, rel)
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return executables, nil
}
