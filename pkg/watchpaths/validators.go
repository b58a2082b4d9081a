package watchpaths

type CreateWatchPathPayload struct {
	Filepath string `json:"filepath" validate:"required,max=4096"`
}

type ListWatchPathsQuery struct {
	Limit  int `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset int `query:"offset" json:"offset,omitempty" validate:"min=0"`
}
