package preview

import "errors"

var (
	ErrFetch        = errors.New("preview fetch failed")
	ErrFetchTimeout = errors.New("preview fetch timed out")
)

// LinkPreviewMeta is the normalized metadata of a web page.
// Optional fields are empty when the page does not provide them.
type LinkPreviewMeta struct {
	URL         string `json:"url"`
	SiteName    string `json:"siteName,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Favicon     string `json:"favicon,omitempty"`
}

// timeoutError marks a fetch failure caused by the fetch deadline.
// It matches both ErrFetchTimeout and ErrFetch.
type timeoutError struct {
	err error
}

func (e *timeoutError) Error() string {
	return "preview fetch timed out: " + e.err.Error()
}

func (e *timeoutError) Unwrap() []error {
	return []error{ErrFetchTimeout, ErrFetch, e.err}
}
