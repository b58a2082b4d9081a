package filesystem

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Service lists directories on the host so the UI can offer a folder picker
// when adding watch paths or registering a folder manually. It only lists
// directories unless IncludeFiles is set.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// BrowseOptions has the same structure as BrowseQuery to allow direct type
// conversion.
type BrowseOptions BrowseQuery

func (s *Service) Browse(opts BrowseOptions) (*BrowseResponse, error) {
	path := opts.Path
	if path == "" {
		path = "/"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	// Resolve symlinks so ".." tricks can't walk out of a resolved tree.
	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		realPath = absPath
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, os.ErrInvalid
	}

	dirEntries, err := os.ReadDir(realPath)
	if err != nil {
		return nil, err
	}

	// Non-nil so empty directories serialize as [] rather than null.
	entries := []DirEntry{}
	for _, de := range dirEntries {
		name := de.Name()

		if !de.IsDir() && !opts.IncludeFiles {
			continue
		}
		if !opts.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if opts.Search != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(opts.Search)) {
			continue
		}

		entries = append(entries, DirEntry{
			Name:  name,
			Path:  filepath.Join(realPath, name),
			IsDir: de.IsDir(),
		})
	}

	// Directories first, then alphabetical within each group.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	total := len(entries)

	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	parentPath := ""
	if realPath != "/" {
		parentPath = filepath.Dir(realPath)
	}

	return &BrowseResponse{
		CurrentPath: realPath,
		ParentPath:  parentPath,
		Entries:     entries[start:end],
		Total:       total,
		HasMore:     end < total,
	}, nil
}
