// Package realtime owns the live chat fanout: per-conversation subscriber
// sets over websocket sessions, plus the Redis notification channel for
// clients that are not connected.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/service"
	"github.com/gigconnect/backend/internal/store"
)

// Session is one live websocket connection for an authenticated user. The
// write pump drains Send; the hub never writes to the wire directly.
type Session struct {
	ID     string
	UserID uuid.UUID
	Send   chan []byte
}

func NewSession(userID uuid.UUID) *Session {
	return &Session{
		ID:     uuid.New().String(),
		UserID: userID,
		Send:   make(chan []byte, 256),
	}
}

// Event is one server->client frame.
type Event struct {
	Type    string              `json:"type"`
	Message service.MessageView `json:"message"`
}

// Hub maps conversation ids to the sessions subscribed to them. All map
// mutation happens behind the mutex; sessions only see joined
// conversations, nothing is implicit.
type Hub struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[*Session]struct{}

	msgs   store.MessageStore
	convs  store.ConversationStore
	notify service.Notifier
}

func NewHub(msgs store.MessageStore, convs store.ConversationStore, notify service.Notifier) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]map[*Session]struct{}),
		msgs:   msgs,
		convs:  convs,
		notify: notify,
	}
}

func (h *Hub) Join(s *Session, convID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[convID]
	if !ok {
		set = make(map[*Session]struct{})
		h.subs[convID] = set
	}
	set[s] = struct{}{}
	log.Printf("realtime: session %s joined conversation %s", s.ID, convID)
}

// Leave is idempotent; leaving a conversation the session never joined is
// a no-op.
func (h *Hub) Leave(s *Session, convID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s, convID)
}

func (h *Hub) leaveLocked(s *Session, convID uuid.UUID) {
	if set, ok := h.subs[convID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.subs, convID)
		}
	}
}

// Disconnect removes the session from every subscriber set and closes its
// send channel. Called once when the connection goes away.
func (h *Hub) Disconnect(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for convID := range h.subs {
		h.leaveLocked(s, convID)
	}
	close(s.Send)
	log.Printf("realtime: session %s disconnected", s.ID)
}

// Publish fans a message out to every session subscribed to its
// conversation, the sender's own sessions included. At most once, best
// effort: a session with a full buffer is skipped, never blocked on.
func (h *Hub) Publish(convID uuid.UUID, msg service.MessageView) {
	ev := Event{Type: "new message", Message: msg}
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("realtime: marshal event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs[convID] {
		select {
		case s.Send <- payload:
		default:
			// slow consumer, drop the frame
		}
	}
}

// SubmitChatText persists a plain text message and fans it out. The
// persisted order is authoritative; subscribers see messages in the order
// the store accepted them. Failures after the write are not surfaced to
// the sender.
func (h *Hub) SubmitChatText(ctx context.Context, s *Session, convID, senderID uuid.UUID, text string) error {
	if text == "" {
		return service.ErrValidation
	}
	conv, err := h.convs.FindByID(ctx, convID)
	if err != nil {
		return err
	}

	msg := &models.Message{
		ConversationID: convID,
		SenderID:       senderID,
		Type:           models.MessageText,
		Text:           text,
	}
	if err := h.msgs.Create(ctx, msg); err != nil {
		return err
	}
	if err := h.convs.TouchLastMessage(ctx, convID, msg.CreatedAt); err != nil {
		log.Printf("realtime: touch conversation %s: %v", convID, err)
	}

	view := service.NewMessageView(msg, nil)
	h.Publish(convID, view)

	if h.notify != nil {
		recipient := conv.EmployerID
		if senderID == conv.EmployerID {
			recipient = conv.FreelancerID
		}
		h.notify.NewMessage(ctx, recipient, view)
	}
	return nil
}

// SubscriberCount is a test/diagnostic helper.
func (h *Hub) SubscriberCount(convID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[convID])
}
