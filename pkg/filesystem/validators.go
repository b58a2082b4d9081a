package filesystem

// BrowseQuery contains query parameters for the browse endpoint.
type BrowseQuery struct {
	Path         string `query:"path" json:"path,omitempty"`
	ShowHidden   bool   `query:"show_hidden" json:"show_hidden,omitempty"`
	IncludeFiles bool   `query:"include_files" json:"include_files,omitempty"`
	Search       string `query:"search" json:"search,omitempty"`
	Limit        int    `query:"limit" json:"limit,omitempty" default:"100" validate:"min=1,max=500"`
	Offset       int    `query:"offset" json:"offset,omitempty" validate:"min=0"`
}

// DirEntry is a single directory listing row.
type DirEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// BrowseResponse is the payload returned by the browse endpoint.
type BrowseResponse struct {
	CurrentPath string     `json:"current_path"`
	ParentPath  string     `json:"parent_path,omitempty"`
	Entries     []DirEntry `json:"entries"`
	Total       int        `json:"total"`
	HasMore     bool       `json:"has_more"`
}
