package server

// CaptionRequestBody is the POST /caption request body. Title and vendor are
// nullable in the wire format.
type CaptionRequestBody struct {
	ImageURL string  `json:"image_url"`
	Title    *string `json:"title"`
	Vendor   *string `json:"vendor"`
}

// CaptionResponseBody is the POST /caption response body.
type CaptionResponseBody struct {
	AltText string `json:"alt_text"`
}

// ErrorResponseBody is returned for validation failures only; processing
// failures always degrade to a 200 with a fallback caption.
type ErrorResponseBody struct {
	Error string `json:"error"`
}
