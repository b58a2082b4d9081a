package models

import (
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

// ThumbDirName is the name of the per-entry directory that cached cover
// images are written into.
const ThumbDirName = "thumb_imgs"

// StringList stores a slice of strings as a JSON array in a text column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}

	var b []byte
	switch v := src.(type) {
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return errors.Errorf("unsupported type for StringList: %T", src)
	}

	if len(b) == 0 {
		*l = nil
		return nil
	}

	err := json.Unmarshal(b, (*[]string)(l))
	return errors.WithStack(err)
}

type Entry struct {
	bun.BaseModel `bun:"table:entries,alias:e"`

	ID         int       `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Identifier string    `bun:",nullzero" json:"identifier"`
	Title      string    `bun:",nullzero" json:"title"`
	Publisher  string    `bun:",nullzero" json:"publisher"`
	// Category and Tags are comma-joined label sets, e.g. "Game,Voiced".
	Category       string     `json:"category"`
	Tags           string     `json:"tags"`
	Rating         float64    `json:"rating"`
	CoverImagePath *string    `json:"cover_image_path"`
	FolderPath     string     `bun:",nullzero" json:"folder_path"`
	Executables    StringList `json:"executables"`
}

// ThumbDir returns the directory where this entry's cached cover images live.
func (e *Entry) ThumbDir() string {
	return filepath.Join(e.FolderPath, ThumbDirName)
}

// ThumbPath returns the cached cover image path for the given slot index.
func (e *Entry) ThumbPath(index int) string {
	return filepath.Join(e.ThumbDir(), fmt.Sprintf("%02d.jpg", index))
}

// ResolveCoverImage returns the path of the entry's cover image, re-checking
// the filesystem since cached files can disappear out from under us. Returns
// an empty string if no cover is cached.
func (e *Entry) ResolveCoverImage() string {
	if e.CoverImagePath != nil && *e.CoverImagePath != "" {
		if _, err := os.Stat(*e.CoverImagePath); err == nil {
			return *e.CoverImagePath
		}
		e.CoverImagePath = nil
	}

	for i := 0; i < 5; i++ {
		p := e.ThumbPath(i)
		if _, err := os.Stat(p); err == nil {
			e.CoverImagePath = &p
			return p
		}
	}
	return ""
}
