package usecase

import (
	"context"

	"github.com/shelfscan/backend/internal/domain"
	"github.com/shelfscan/backend/internal/isbn"
)

// BookService looks up metadata for manually entered ISBNs
type BookService struct {
	books domain.BooksClient
}

// NewBookService creates a new book service
func NewBookService(books domain.BooksClient) *BookService {
	return &BookService{books: books}
}

// Lookup validates raw as an ISBN-13 and fetches its metadata
func (s *BookService) Lookup(ctx context.Context, raw string) (*domain.Book, error) {
	digits, err := isbn.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return s.books.LookupISBN(ctx, digits)
}
