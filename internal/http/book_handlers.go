package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/domain"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/validation"
)

// withOwner fills in the owner's display fields on a listing.
func (s *Server) withOwner(r *http.Request, b domain.Book) domain.Book {
	owner, err := s.users.GetByID(r.Context(), b.OwnerID)
	if err == nil && owner != nil {
		b.OwnerName = owner.Name
		b.OwnerEmail = owner.Email
	}
	return b
}

// handleBooks handles GET /api/v1/books (list) and POST /api/v1/books (create).
// List filters: ?subject=...&title=...&owner=me
func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listBooks(w, r)
	case http.MethodPost:
		s.createBook(w, r)
	default:
		w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodPost}, ", "))
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := storage.BookFilter{
		Subject: strings.TrimSpace(q.Get("subject")),
		Title:   strings.TrimSpace(q.Get("title")),
	}
	if q.Get("owner") == "me" {
		user := s.currentUser(w, r)
		if user == nil {
			return
		}
		filter.OwnerID = user.ID
	}

	books, err := s.books.ListBooks(ctx, filter)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}

	resp := make([]domain.Book, 0, len(books))
	for _, b := range books {
		resp = append(resp, s.withOwner(r, b))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.currentUser(w, r)
	if user == nil {
		return
	}

	var input domain.CreateBook
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid json", "")
		return
	}
	if err := validation.ValidateCreateBook(input); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	book, err := s.books.CreateBook(ctx, user.ID, input)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}

	s.logger.InfoContext(ctx, "book created", "book_id", book.ID, "user_id", user.ID)
	writeJSON(w, http.StatusCreated, s.withOwner(r, book))
}

// handleBooksSubroutes dispatches /api/v1/books/{id} and
// /api/v1/books/{id}/conversation.
func (s *Server) handleBooksSubroutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/books/"), "/")
	if path == "" {
		s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
		return
	}

	id, rest, _ := strings.Cut(path, "/")
	switch rest {
	case "":
		s.handleBookByID(w, r, id)
	case "conversation":
		s.handleBookConversation(w, r, id)
	default:
		s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
	}
}

func (s *Server) handleBookByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		s.getBook(w, r, id)
	case http.MethodPut:
		s.updateBook(w, r, id)
	case http.MethodDelete:
		s.deleteBook(w, r, id)
	default:
		w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodPut, http.MethodDelete}, ", "))
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	book, err := s.books.GetBook(ctx, id)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.withOwner(r, book))
}

// ownedBook loads the book and enforces that the current user owns it.
func (s *Server) ownedBook(w http.ResponseWriter, r *http.Request, id string) (domain.Book, bool) {
	ctx := r.Context()
	user := s.currentUser(w, r)
	if user == nil {
		return domain.Book{}, false
	}
	book, err := s.books.GetBook(ctx, id)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return domain.Book{}, false
	}
	if book.OwnerID != user.ID {
		s.writeErr(ctx, w, http.StatusForbidden, "not the owner of this listing", "")
		return domain.Book{}, false
	}
	return book, true
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	if _, ok := s.ownedBook(w, r, id); !ok {
		return
	}

	var input domain.UpdateBook
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid json", "")
		return
	}
	if err := validation.ValidateUpdateBook(input); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	book, err := s.books.UpdateBook(ctx, id, input)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}

	s.logger.InfoContext(ctx, "book updated", "book_id", id)
	writeJSON(w, http.StatusOK, s.withOwner(r, book))
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	if _, ok := s.ownedBook(w, r, id); !ok {
		return
	}

	if err := s.books.DeleteBook(ctx, id); err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}

	s.logger.InfoContext(ctx, "book deleted", "book_id", id)
	w.WriteHeader(http.StatusNoContent)
}
