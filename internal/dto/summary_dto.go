package dto

// SummarizeRequest is read from the query string and, when present, the
// JSON body. Body fields win.
type SummarizeRequest struct {
	VideoUrl string `json:"videoUrl" query:"videoUrl" validate:"required,url"`
	Strategy string `json:"strategy" query:"strategy" validate:"omitempty,oneof=map_reduce refine"`
	Stream   bool   `json:"stream" query:"stream"`
}

type SummarizeResponse struct {
	Res     string `json:"res"`
	Omitted []int  `json:"omitted,omitempty"`
}

// StreamErrorLine is the last line of a stream that failed.
type StreamErrorLine struct {
	Error string `json:"error"`
}
