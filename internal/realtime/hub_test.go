package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/service"
	"github.com/gigconnect/backend/internal/store"
)

type memConvStore struct {
	convs map[uuid.UUID]*models.Conversation
}

func (m *memConvStore) Create(ctx context.Context, conv *models.Conversation) error {
	m.convs[conv.ID] = conv
	return nil
}

func (m *memConvStore) FindByKey(ctx context.Context, key string, serviceID uuid.UUID) (*models.Conversation, error) {
	return nil, store.ErrNotFound
}

func (m *memConvStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	if c, ok := m.convs[id]; ok {
		return c, nil
	}
	return nil, store.ErrNotFound
}

func (m *memConvStore) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	return nil, nil
}

func (m *memConvStore) ExistsBetween(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	return false, nil
}

func (m *memConvStore) TouchLastMessage(ctx context.Context, id uuid.UUID, at time.Time) error {
	if c, ok := m.convs[id]; ok {
		c.LastMessageAt = at
	}
	return nil
}

func (m *memConvStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ConversationStatus, projectID *uuid.UUID) error {
	return nil
}

type memMsgStore struct {
	msgs []models.Message
}

func (m *memMsgStore) Create(ctx context.Context, msg *models.Message) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memMsgStore) ListByConversation(ctx context.Context, convID uuid.UUID) ([]models.Message, error) {
	var out []models.Message
	for _, msg := range m.msgs {
		if msg.ConversationID == convID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memMsgStore) LastByConversation(ctx context.Context, convID uuid.UUID) (*models.Message, error) {
	return nil, store.ErrNotFound
}

func (m *memMsgStore) MarkRead(ctx context.Context, convID, readerID uuid.UUID) error {
	return nil
}

type recordingNotifier struct {
	recipients []uuid.UUID
}

func (r *recordingNotifier) NewMessage(ctx context.Context, recipientID uuid.UUID, msg service.MessageView) {
	r.recipients = append(r.recipients, recipientID)
}

type hubEnv struct {
	hub      *Hub
	msgs     *memMsgStore
	convs    *memConvStore
	notify   *recordingNotifier
	conv     *models.Conversation
	employer uuid.UUID
	worker   uuid.UUID
}

func newHubEnv(t *testing.T) *hubEnv {
	t.Helper()
	e := &hubEnv{
		msgs:     &memMsgStore{},
		convs:    &memConvStore{convs: map[uuid.UUID]*models.Conversation{}},
		notify:   &recordingNotifier{},
		employer: uuid.New(),
		worker:   uuid.New(),
	}
	e.conv = &models.Conversation{
		ID:           uuid.New(),
		EmployerID:   e.employer,
		FreelancerID: e.worker,
		Status:       models.StatusProposal,
	}
	e.convs.convs[e.conv.ID] = e.conv
	e.hub = NewHub(e.msgs, e.convs, e.notify)
	return e
}

func drain(t *testing.T, s *Session) []Event {
	t.Helper()
	var out []Event
	for {
		select {
		case payload, ok := <-s.Send:
			if !ok {
				return out
			}
			var ev Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestJoinDeliversExactlyOnce(t *testing.T) {
	e := newHubEnv(t)
	ctx := context.Background()

	listener := NewSession(e.worker)
	sender := NewSession(e.employer)
	e.hub.Join(listener, e.conv.ID)
	e.hub.Join(sender, e.conv.ID)

	if err := e.hub.SubmitChatText(ctx, sender, e.conv.ID, e.employer, "hello there"); err != nil {
		t.Fatalf("SubmitChatText: %v", err)
	}

	got := drain(t, listener)
	if len(got) != 1 {
		t.Fatalf("listener got %d events, want 1", len(got))
	}
	if got[0].Type != "new message" {
		t.Fatalf("event type = %q, want \"new message\"", got[0].Type)
	}
	if got[0].Message.Text != "hello there" || got[0].Message.Type != string(models.MessageText) {
		t.Fatalf("event payload wrong: %+v", got[0].Message)
	}

	// the sender's own subscribed session hears it too — nobody is excluded
	if senderGot := drain(t, sender); len(senderGot) != 1 {
		t.Fatalf("sender session got %d events, want 1", len(senderGot))
	}

	if len(e.msgs.msgs) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(e.msgs.msgs))
	}
}

func TestLeaveStopsDelivery(t *testing.T) {
	e := newHubEnv(t)
	ctx := context.Background()

	listener := NewSession(e.worker)
	sender := NewSession(e.employer)
	e.hub.Join(listener, e.conv.ID)

	e.hub.Leave(listener, e.conv.ID)
	// leaving twice is fine
	e.hub.Leave(listener, e.conv.ID)

	if err := e.hub.SubmitChatText(ctx, sender, e.conv.ID, e.employer, "anyone?"); err != nil {
		t.Fatalf("SubmitChatText: %v", err)
	}
	if got := drain(t, listener); len(got) != 0 {
		t.Fatalf("listener got %d events after leave, want 0", len(got))
	}
	// the message still persists even with no subscribers
	if len(e.msgs.msgs) != 1 {
		t.Fatalf("persisted %d messages, want 1", len(e.msgs.msgs))
	}
}

func TestDisconnectCleansEverySubscription(t *testing.T) {
	e := newHubEnv(t)

	other := &models.Conversation{
		ID:           uuid.New(),
		EmployerID:   e.employer,
		FreelancerID: e.worker,
	}
	e.convs.convs[other.ID] = other

	s := NewSession(e.worker)
	e.hub.Join(s, e.conv.ID)
	e.hub.Join(s, other.ID)

	e.hub.Disconnect(s)

	if n := e.hub.SubscriberCount(e.conv.ID); n != 0 {
		t.Fatalf("conversation 1 still has %d subscribers", n)
	}
	if n := e.hub.SubscriberCount(other.ID); n != 0 {
		t.Fatalf("conversation 2 still has %d subscribers", n)
	}
	if _, ok := <-s.Send; ok {
		t.Fatal("send channel still open after disconnect")
	}
}

func TestSubmitChatTextValidation(t *testing.T) {
	e := newHubEnv(t)
	ctx := context.Background()
	s := NewSession(e.employer)

	if err := e.hub.SubmitChatText(ctx, s, e.conv.ID, e.employer, ""); !errors.Is(err, service.ErrValidation) {
		t.Fatalf("empty text: err = %v, want ErrValidation", err)
	}
	if err := e.hub.SubmitChatText(ctx, s, uuid.New(), e.employer, "hi"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("unknown conversation: err = %v, want store.ErrNotFound", err)
	}
}

// A chat send with no proposal in the conversation yet must still work —
// plain text never requires negotiation state.
func TestChatBeforeAnyProposal(t *testing.T) {
	e := newHubEnv(t)
	ctx := context.Background()
	s := NewSession(e.worker)

	if err := e.hub.SubmitChatText(ctx, s, e.conv.ID, e.worker, "quick question first"); err != nil {
		t.Fatalf("SubmitChatText: %v", err)
	}
	if len(e.msgs.msgs) != 1 || e.msgs.msgs[0].Type != models.MessageText {
		t.Fatalf("text message not persisted: %+v", e.msgs.msgs)
	}
	if e.msgs.msgs[0].ProposalID != nil {
		t.Fatal("text message must not reference a proposal")
	}
	// counterpart (the employer) gets the offline notification
	if len(e.notify.recipients) != 1 || e.notify.recipients[0] != e.employer {
		t.Fatalf("notification recipients = %v, want [employer]", e.notify.recipients)
	}
}
