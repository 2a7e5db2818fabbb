package googlebooks

import (
	"strings"

	"github.com/shelfscan/backend/internal/domain"
)

// AuthorSeparator joins the ordered author list for display
const AuthorSeparator = ", "

// MapToBook converts the first volume of a search response to a Book.
// ok is false when the response carries no item or a null first item.
func MapToBook(isbn string, resp *domain.VolumesResponse) (*domain.Book, bool) {
	if resp == nil || len(resp.Items) == 0 || resp.Items[0] == nil {
		return nil, false
	}

	info := resp.Items[0].VolumeInfo
	if info == nil {
		info = &domain.VolumeInfo{}
	}

	authors := nonEmpty(info.Authors)

	return &domain.Book{
		ISBN:          isbn,
		Title:         orDefault(info.Title, domain.UntitledPlaceholder),
		Authors:       authors,
		AuthorLine:    orDefault(strings.Join(authors, AuthorSeparator), domain.UnknownPlaceholder),
		Publisher:     orDefault(info.Publisher, domain.UnknownPlaceholder),
		PublishedDate: orDefault(info.PublishedDate, domain.UnknownPlaceholder),
		CoverURL:      coverURL(info.ImageLinks),
	}, true
}

// coverURL prefers the larger thumbnail
func coverURL(links *domain.ImageLinks) string {
	if links == nil {
		return ""
	}
	if links.Thumbnail != "" {
		return links.Thumbnail
	}
	return links.SmallThumbnail
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
