package entries

type ListEntriesQuery struct {
	Limit      int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset     int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Identifier *string `query:"identifier" json:"identifier,omitempty" validate:"omitempty,max=100"`
	Title      *string `query:"title" json:"title,omitempty" validate:"omitempty,max=500"`
	Publisher  *string `query:"publisher" json:"publisher,omitempty" validate:"omitempty,max=500"`
	Category   *string `query:"category" json:"category,omitempty" validate:"omitempty,max=500"`
	Sort       *string `query:"sort" json:"sort,omitempty" validate:"omitempty,oneof=newest oldest random"`
}

type UpdateEntryPayload struct {
	Title     *string  `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Publisher *string  `json:"publisher,omitempty" validate:"omitempty,min=1,max=500"`
	Category  *string  `json:"category,omitempty" validate:"omitempty,max=500"`
	Tags      *string  `json:"tags,omitempty" validate:"omitempty,max=2000"`
	Rating    *float64 `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
}

type CreateManualEntryPayload struct {
	FolderPath string  `json:"folder_path" validate:"required,max=4096"`
	Title      *string `json:"title,omitempty" validate:"omitempty,min=1,max=500"`
	Publisher  *string `json:"publisher,omitempty" validate:"omitempty,min=1,max=500"`
	Category   *string `json:"category,omitempty" validate:"omitempty,max=500"`
	Tags       *string `json:"tags,omitempty" validate:"omitempty,max=2000"`
}

type ChooseExecutablePayload struct {
	Executable string `json:"executable" validate:"required,max=4096"`
}

type ThumbnailQuery struct {
	Width  int `query:"width" json:"width,omitempty" default:"200" validate:"min=1,max=2000"`
	Height int `query:"height" json:"height,omitempty" default:"200" validate:"min=1,max=2000"`
}
