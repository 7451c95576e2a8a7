package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/duplicate"
	"github.com/bookshelfapp/bookshelf-server/internal/library"
	"github.com/bookshelfapp/bookshelf-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Add book",
		Description:   "Adds a book to the library. A likely duplicate is refused with 409 unless force is set.",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "checkDuplicateBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/duplicate-check",
		Summary:     "Check for duplicate",
		Description: "Reports whether a book with this ISBN, or this title and author, is already owned",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCheckDuplicate)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBin",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/bin",
		Summary:     "List bin",
		Description: "Returns soft-deleted books, most recently deleted first",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBin)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by ID, including books in the bin",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Updates the supplied fields. An empty string or zero clears an optional field.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "binBook",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}",
		Summary:       "Move book to bin",
		Description:   "Soft-deletes a book",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleBinBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreBook",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/restore",
		Summary:     "Restore book",
		Description: "Takes a book out of the bin",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRestoreBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBookForever",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}/forever",
		Summary:       "Delete book permanently",
		Description:   "Removes a book that is already in the bin",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBookForever)

	huma.Register(s.api, huma.Operation{
		OperationID: "addReadAttempt",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/reads",
		Summary:     "Add read attempt",
		Description: "Appends a read attempt. With neither date it starts reading now.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddReadAttempt)

	huma.Register(s.api, huma.Operation{
		OperationID: "finishReading",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{id}/reads/finish",
		Summary:     "Finish reading",
		Description: "Closes the open read attempt, or records a finished read",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleFinishReading)
}

// === DTOs ===

// BookResponse is a book with its derived reading status.
type BookResponse struct {
	domain.Book
	Status domain.Status `json:"status" doc:"Reading status derived from read attempts"`
}

func newBookResponse(b *domain.Book) BookResponse {
	return BookResponse{Book: *b, Status: library.DeriveStatus(b)}
}

func newBookResponses(books []*domain.Book) []BookResponse {
	out := make([]BookResponse, len(books))
	for i, b := range books {
		out[i] = newBookResponse(b)
	}
	return out
}

type BookOutput struct {
	Body BookResponse
}

type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

type ReadAttemptBody struct {
	StartedAt  *time.Time `json:"started_at,omitempty" doc:"When reading started"`
	FinishedAt *time.Time `json:"finished_at,omitempty" doc:"When reading finished"`
}

func (r ReadAttemptBody) toDomain() domain.ReadAttempt {
	return domain.ReadAttempt{StartedAt: r.StartedAt, FinishedAt: r.FinishedAt}
}

type CreateBookRequest struct {
	Title          string            `json:"title" doc:"Title"`
	Author         string            `json:"author,omitempty" doc:"Author"`
	ISBN           string            `json:"isbn,omitempty" doc:"ISBN-10 or ISBN-13, with or without an ISBN prefix"`
	Publisher      string            `json:"publisher,omitempty" doc:"Publisher"`
	PublishedDate  string            `json:"published_date,omitempty" doc:"Publication date"`
	PageCount      *int              `json:"page_count,omitempty" doc:"Number of pages"`
	PhysicalFormat string            `json:"physical_format,omitempty" doc:"Hardcover, paperback, ebook..."`
	Rating         *int              `json:"rating,omitempty" doc:"Rating from 1 to 5"`
	Reads          []ReadAttemptBody `json:"reads,omitempty" doc:"Read attempts, oldest first"`
	GenreIDs       []string          `json:"genre_ids,omitempty" doc:"Genre IDs"`
	SeriesID       string            `json:"series_id,omitempty" doc:"Series ID"`
	SeriesPosition *int              `json:"series_position,omitempty" doc:"Position within the series"`
	CoverImageURL  string            `json:"cover_image_url,omitempty" doc:"Cover image URL"`
	Notes          string            `json:"notes,omitempty" doc:"Free-text notes"`
	Force          bool              `json:"force,omitempty" doc:"Add even if the book looks like a duplicate"`
}

type CreateBookInput struct {
	Body CreateBookRequest
}

type UpdateBookRequest struct {
	Title          *string            `json:"title,omitempty" doc:"Title"`
	Author         *string            `json:"author,omitempty" doc:"Author"`
	ISBN           *string            `json:"isbn,omitempty" doc:"ISBN; empty clears"`
	Publisher      *string            `json:"publisher,omitempty" doc:"Publisher; empty clears"`
	PublishedDate  *string            `json:"published_date,omitempty" doc:"Publication date; empty clears"`
	PageCount      *int               `json:"page_count,omitempty" doc:"Number of pages; 0 clears"`
	PhysicalFormat *string            `json:"physical_format,omitempty" doc:"Format; empty clears"`
	Rating         *int               `json:"rating,omitempty" doc:"Rating from 1 to 5; 0 clears"`
	Reads          *[]ReadAttemptBody `json:"reads,omitempty" doc:"Replaces all read attempts"`
	GenreIDs       *[]string          `json:"genre_ids,omitempty" doc:"Replaces all genre IDs"`
	SeriesID       *string            `json:"series_id,omitempty" doc:"Series ID; empty clears series and position"`
	SeriesPosition *int               `json:"series_position,omitempty" doc:"Position; 0 clears"`
	CoverImageURL  *string            `json:"cover_image_url,omitempty" doc:"Cover URL; empty clears"`
	Notes          *string            `json:"notes,omitempty" doc:"Notes; empty clears"`
}

type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body UpdateBookRequest
}

type DuplicateCheckRequest struct {
	ISBN   string `json:"isbn,omitempty" doc:"ISBN to match exactly"`
	Title  string `json:"title,omitempty" doc:"Title to match with author"`
	Author string `json:"author,omitempty" doc:"Author to match with title"`
}

type DuplicateCheckInput struct {
	Body DuplicateCheckRequest
}

// DuplicateCheckResponse reports the owned book a candidate matches, if any.
type DuplicateCheckResponse duplicate.Result

type DuplicateCheckOutput struct {
	Body DuplicateCheckResponse
}

type ListBinResponse struct {
	Books []BookResponse `json:"books" doc:"Books in the bin"`
}

type ListBinOutput struct {
	Body ListBinResponse
}

type AddReadAttemptInput struct {
	ID   string          `path:"id" doc:"Book ID"`
	Body ReadAttemptBody `required:"false"`
}

type FinishReadingRequest struct {
	FinishedAt *time.Time `json:"finished_at,omitempty" doc:"Defaults to now"`
}

type FinishReadingInput struct {
	ID   string               `path:"id" doc:"Book ID"`
	Body FinishReadingRequest `required:"false"`
}

// === Handlers ===

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	b := input.Body
	reads := make([]domain.ReadAttempt, len(b.Reads))
	for i, r := range b.Reads {
		reads[i] = r.toDomain()
	}

	book, err := s.services.Book.Create(ctx, userID, service.CreateBookRequest{
		Title:          b.Title,
		Author:         b.Author,
		ISBN:           b.ISBN,
		Publisher:      b.Publisher,
		PublishedDate:  b.PublishedDate,
		PageCount:      b.PageCount,
		PhysicalFormat: b.PhysicalFormat,
		Rating:         b.Rating,
		Reads:          reads,
		GenreIDs:       b.GenreIDs,
		SeriesID:       b.SeriesID,
		SeriesPosition: b.SeriesPosition,
		CoverImageURL:  b.CoverImageURL,
		Notes:          b.Notes,
		Force:          b.Force,
	})
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: newBookResponse(book)}, nil
}

func (s *Server) handleCheckDuplicate(ctx context.Context, input *DuplicateCheckInput) (*DuplicateCheckOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Book.CheckDuplicate(ctx, userID, input.Body.ISBN, input.Body.Title, input.Body.Author)
	if err != nil {
		return nil, err
	}

	return &DuplicateCheckOutput{Body: DuplicateCheckResponse(res)}, nil
}

func (s *Server) handleListBin(ctx context.Context, _ *struct{}) (*ListBinOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Book.ListBin(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ListBinOutput{Body: ListBinResponse{Books: newBookResponses(books)}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.Get(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: newBookResponse(book)}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	b := input.Body
	req := service.UpdateBookRequest{
		Title:          b.Title,
		Author:         b.Author,
		ISBN:           b.ISBN,
		Publisher:      b.Publisher,
		PublishedDate:  b.PublishedDate,
		PageCount:      b.PageCount,
		PhysicalFormat: b.PhysicalFormat,
		Rating:         b.Rating,
		GenreIDs:       b.GenreIDs,
		SeriesID:       b.SeriesID,
		SeriesPosition: b.SeriesPosition,
		CoverImageURL:  b.CoverImageURL,
		Notes:          b.Notes,
	}
	if b.Reads != nil {
		reads := make([]domain.ReadAttempt, len(*b.Reads))
		for i, r := range *b.Reads {
			reads[i] = r.toDomain()
		}
		req.Reads = &reads
	}

	book, err := s.services.Book.Update(ctx, userID, input.ID, req)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: newBookResponse(book)}, nil
}

func (s *Server) handleBinBook(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Book.MoveToBin(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleRestoreBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.Restore(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: newBookResponse(book)}, nil
}

func (s *Server) handleDeleteBookForever(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Book.DeleteForever(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleAddReadAttempt(ctx context.Context, input *AddReadAttemptInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.AddReadAttempt(ctx, userID, input.ID, input.Body.toDomain())
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: newBookResponse(book)}, nil
}

func (s *Server) handleFinishReading(ctx context.Context, input *FinishReadingInput) (*BookOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	book, err := s.services.Book.FinishReading(ctx, userID, input.ID, input.Body.FinishedAt)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: newBookResponse(book)}, nil
}
