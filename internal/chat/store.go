package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/domain"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/observability"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage"
)

// keyPrefix namespaces conversation records in the key-value store.
const keyPrefix = "conversation_"

// InitialMessageID is the well-known ID of the seeded welcome message. It is
// not unique across conversations; callers must seed a conversation at most
// once, and only when it is empty.
const InitialMessageID = "1"

// Store persists conversations in a key-value store and publishes new
// messages to an in-process bus.
//
// The store is best-effort: reads of absent or malformed records yield an
// empty conversation, and write failures are logged rather than returned.
// Chat must never break the listing workflow around it.
type Store struct {
	kv      storage.KV
	bus     *Bus
	logger  observability.Logger
	metrics *observability.Metrics
}

// NewStore creates a conversation store. kv may be nil, in which case all
// operations degrade to no-ops and empty results. metrics may be nil.
func NewStore(kv storage.KV, bus *Bus, logger observability.Logger, metrics *observability.Metrics) *Store {
	if logger == nil {
		logger = observability.NewLogger(observability.DefaultConfig())
	}
	if bus == nil {
		bus = NewBus()
	}
	return &Store{kv: kv, bus: bus, logger: logger.WithComponent("chat"), metrics: metrics}
}

// Bus returns the notification bus the store publishes to.
func (s *Store) Bus() *Bus {
	return s.bus
}

// ConversationKey derives the storage key for a conversation. The two user
// IDs are sorted lexicographically first, so the key is identical no matter
// which participant is passed as which.
func ConversationKey(bookID, userA, userB string) string {
	users := []string{userA, userB}
	sort.Strings(users)
	return keyPrefix + bookID + "_" + strings.Join(users, "-")
}

// Conversation returns the ordered messages between the two users about the
// given listing. An absent or unreadable record yields an empty slice; this
// method never fails the caller and has no side effects.
func (s *Store) Conversation(ctx context.Context, bookID, userA, userB string) []domain.Message {
	if s.kv == nil {
		return []domain.Message{}
	}

	key := ConversationKey(bookID, userA, userB)
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.ErrorContext(ctx, "read conversation failed", "key", key, "error", err)
		return []domain.Message{}
	}
	if !ok {
		return []domain.Message{}
	}

	var conv domain.Conversation
	if err := json.Unmarshal([]byte(raw), &conv); err != nil {
		s.logger.ErrorContext(ctx, "decode conversation failed", "key", key, "error", err)
		return []domain.Message{}
	}
	if conv.Messages == nil {
		return []domain.Message{}
	}
	return conv.Messages
}

// SaveConversation writes the full message sequence for the conversation,
// replacing any prior record and recomputing lastUpdated. Write failures are
// logged and swallowed.
func (s *Store) SaveConversation(ctx context.Context, bookID, userA, userB string, messages []domain.Message) {
	if s.kv == nil {
		return
	}

	conv := domain.Conversation{
		BookID:      bookID,
		Messages:    messages,
		LastUpdated: time.Now().UTC(),
	}
	raw, err := json.Marshal(conv)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode conversation failed", "book_id", bookID, "error", err)
		return
	}

	key := ConversationKey(bookID, userA, userB)
	if err := s.kv.Set(ctx, key, string(raw)); err != nil {
		s.logger.ErrorContext(ctx, "save conversation failed", "key", key, "error", err)
	}
}

// AddMessage appends a message from currentUserID to the conversation with
// ownerID about the given listing, persists the updated sequence, publishes
// the message to the bus, and returns it.
//
// Persistence is a whole-record overwrite, so two concurrent appends to the
// same conversation can lose one of the messages (last writer wins). That is
// an accepted limitation of the feature, not something callers should try to
// compensate for.
func (s *Store) AddMessage(ctx context.Context, bookID, currentUserID, ownerID, text, senderName string) domain.Message {
	messages := s.Conversation(ctx, bookID, currentUserID, ownerID)

	msg := domain.Message{
		ID:         strconv.FormatInt(time.Now().UnixMilli(), 10),
		Sender:     currentUserID,
		SenderName: senderName,
		Text:       text,
		Timestamp:  time.Now().UTC(),
	}

	messages = append(messages, msg)
	s.SaveConversation(ctx, bookID, currentUserID, ownerID, messages)

	if s.metrics != nil {
		s.metrics.RecordMessagePublished()
	}
	s.bus.Publish(bookID, msg)

	return msg
}

// InitialMessage builds the welcome message that seeds a brand-new
// conversation, attributed to the listing owner. It always carries
// InitialMessageID, so it must only be used when no conversation exists yet.
func InitialMessage(ownerID, ownerName, bookTitle string) domain.Message {
	return domain.Message{
		ID:         InitialMessageID,
		Sender:     ownerID,
		SenderName: ownerName,
		Text:       fmt.Sprintf("Hello! I'm %s, the owner of %q. Feel free to ask any questions about this book.", ownerName, bookTitle),
		Timestamp:  time.Now().UTC(),
	}
}

// UserConversations returns every conversation the user participates in,
// most recently active first. Records that cannot be parsed are skipped.
func (s *Store) UserConversations(ctx context.Context, userID string) []domain.Conversation {
	if s.kv == nil {
		return []domain.Conversation{}
	}

	keys, err := s.kv.Keys(ctx, keyPrefix)
	if err != nil {
		s.logger.ErrorContext(ctx, "scan conversations failed", "error", err)
		return []domain.Conversation{}
	}

	conversations := make([]domain.Conversation, 0, len(keys))
	for _, key := range keys {
		if !keyHasParticipant(key, userID) {
			continue
		}
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		var conv domain.Conversation
		if err := json.Unmarshal([]byte(raw), &conv); err != nil {
			s.logger.WarnContext(ctx, "skipping unreadable conversation", "key", key, "error", err)
			continue
		}
		conversations = append(conversations, conv)
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastUpdated.After(conversations[j].LastUpdated)
	})
	return conversations
}

// keyHasParticipant reports whether userID is one of the two participants
// encoded in a conversation key. Keys that do not follow the
// conversation_<book>_<a>-<b> layout are treated as non-matching.
func keyHasParticipant(key, userID string) bool {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return false
	}
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return false
	}
	users := strings.Split(parts[1], "-")
	if len(users) != 2 {
		return false
	}
	return users[0] == userID || users[1] == userID
}
