package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/chat"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/domain"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/validation"
)

// conversationPeer resolves who the current user is talking to about a
// listing. Non-owners always talk to the owner; the owner must name the
// other participant with ?with= (or "with" in the POST body).
func (s *Server) conversationPeer(w http.ResponseWriter, r *http.Request, book domain.Book, userID, explicit string) (string, bool) {
	ctx := r.Context()
	if explicit != "" {
		if explicit == userID {
			s.writeErr(ctx, w, http.StatusBadRequest, "cannot converse with yourself", "")
			return "", false
		}
		return explicit, true
	}
	if book.OwnerID == userID {
		s.writeErr(ctx, w, http.StatusBadRequest, "owner must specify the other participant", "use the with parameter")
		return "", false
	}
	return book.OwnerID, true
}

// handleBookConversation handles GET and POST /api/v1/books/{id}/conversation.
func (s *Server) handleBookConversation(w http.ResponseWriter, r *http.Request, bookID string) {
	switch r.Method {
	case http.MethodGet:
		s.getConversation(w, r, bookID)
	case http.MethodPost:
		s.postMessage(w, r, bookID)
	default:
		w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodPost}, ", "))
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
	}
}

// getConversation returns the messages between the current user and the
// other participant. A brand-new conversation is seeded with a welcome
// message attributed to the listing owner.
func (s *Server) getConversation(w http.ResponseWriter, r *http.Request, bookID string) {
	ctx := r.Context()
	user := s.currentUser(w, r)
	if user == nil {
		return
	}

	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}

	peer, ok := s.conversationPeer(w, r, book, user.ID, strings.TrimSpace(r.URL.Query().Get("with")))
	if !ok {
		return
	}

	messages := s.chat.Conversation(ctx, bookID, user.ID, peer)
	if len(messages) == 0 {
		ownerName := book.OwnerName
		if owner, err := s.users.GetByID(ctx, book.OwnerID); err == nil && owner != nil {
			ownerName = owner.Name
		}
		welcome := chat.InitialMessage(book.OwnerID, ownerName, book.Title)
		messages = []domain.Message{welcome}
		s.chat.SaveConversation(ctx, bookID, user.ID, peer, messages)
	}

	writeJSON(w, http.StatusOK, messages)
}

// postMessage appends a message to the conversation.
// Request: {"text": "...", "with": "<user id, owner only>"}
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request, bookID string) {
	ctx := r.Context()
	user := s.currentUser(w, r)
	if user == nil {
		return
	}

	var input struct {
		Text string `json:"text"`
		With string `json:"with"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid json", "")
		return
	}
	if err := validation.ValidateMessageText(input.Text); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid message", err.Error())
		return
	}

	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}

	peer, ok := s.conversationPeer(w, r, book, user.ID, strings.TrimSpace(input.With))
	if !ok {
		return
	}

	msg := s.chat.AddMessage(ctx, bookID, user.ID, peer, strings.TrimSpace(input.Text), user.Name)
	writeJSON(w, http.StatusCreated, msg)
}

// handleUserConversations handles GET /api/v1/conversations: every
// conversation the current user participates in, most recent first.
func (s *Server) handleUserConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	user := s.currentUser(w, r)
	if user == nil {
		return
	}

	writeJSON(w, http.StatusOK, s.chat.UserConversations(ctx, user.ID))
}

// chatEvent is the SSE payload for a published message.
type chatEvent struct {
	BookID  string         `json:"bookId"`
	Message domain.Message `json:"message"`
}

// handleChatStream handles GET /api/v1/chat/stream: a Server-Sent Events
// feed of new messages, optionally filtered by ?book=<id>. Events a slow
// client cannot keep up with are dropped.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	user := s.currentUser(w, r)
	if user == nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeErr(ctx, w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}

	bookFilter := strings.TrimSpace(r.URL.Query().Get("book"))

	events := make(chan chatEvent, 16)
	unsubscribe := s.chat.Bus().Subscribe(func(bookID string, msg domain.Message) {
		if bookFilter != "" && bookID != bookFilter {
			return
		}
		select {
		case events <- chatEvent{BookID: bookID, Message: msg}:
		default:
			// Slow consumer; drop rather than block the publisher.
		}
	})
	defer unsubscribe()

	if s.metrics != nil {
		s.metrics.IncrementChatSubscribers()
		defer s.metrics.DecrementChatSubscribers()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.logger.InfoContext(ctx, "chat stream opened", "user_id", user.ID, "book", bookFilter)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
