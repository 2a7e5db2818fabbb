package domain

// Placeholders used when the books API omits a field
const (
	UntitledPlaceholder = "(untitled)"
	UnknownPlaceholder  = "Unknown"
)

// Book is the display-ready metadata for one scanned ISBN
type Book struct {
	ISBN          string   `json:"isbn"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	AuthorLine    string   `json:"authorLine"`
	Publisher     string   `json:"publisher"`
	PublishedDate string   `json:"publishedDate"`
	CoverURL      string   `json:"coverUrl,omitempty"`
}

// VolumesResponse represents the response from the Google Books volumes search
type VolumesResponse struct {
	Kind       string    `json:"kind"`
	TotalItems int       `json:"totalItems"`
	Items      []*Volume `json:"items"`
}

// Volume is a single search hit. VolumeInfo is a pointer so a missing object
// can be told apart from an empty one.
type Volume struct {
	ID         string      `json:"id"`
	VolumeInfo *VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo holds the bibliographic fields we display
type VolumeInfo struct {
	Title         string      `json:"title"`
	Authors       []string    `json:"authors"`
	Publisher     string      `json:"publisher"`
	PublishedDate string      `json:"publishedDate"`
	ImageLinks    *ImageLinks `json:"imageLinks"`
}

// ImageLinks holds cover thumbnails; thumbnail is the larger of the two
type ImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}
