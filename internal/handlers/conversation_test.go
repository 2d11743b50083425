package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/service"
)

// stubNegotiation returns canned results so the tests exercise only the
// HTTP boundary: parsing, auth locals, status codes, envelopes.
type stubNegotiation struct {
	conversations []service.ConversationSummary
	detail        *service.ConversationDetail
	latest        *service.ProposalView
	history       []service.MessageView
	startedConv   uuid.UUID
	err           error

	markedRead int
}

func (s *stubNegotiation) ListConversations(_ context.Context, _ uuid.UUID) ([]service.ConversationSummary, error) {
	return s.conversations, s.err
}

func (s *stubNegotiation) GetConversation(_ context.Context, _ uuid.UUID) (*service.ConversationDetail, error) {
	return s.detail, s.err
}

func (s *stubNegotiation) ConversationExists(_ context.Context, _, _ uuid.UUID) (bool, error) {
	return s.detail != nil, s.err
}

func (s *stubNegotiation) StartNegotiation(_ context.Context, _, _, _ uuid.UUID, terms service.ProposalTerms) (uuid.UUID, error) {
	if s.err != nil {
		return uuid.Nil, s.err
	}
	if terms.MessageText == "" || terms.Budget <= 0 || terms.Deadline.IsZero() {
		return uuid.Nil, fmt.Errorf("%w: incomplete proposal terms", service.ErrValidation)
	}
	return s.startedConv, nil
}

func (s *stubNegotiation) SubmitCounterOffer(_ context.Context, convID, _, _ uuid.UUID, _ service.ProposalTerms) (uuid.UUID, error) {
	if s.err != nil {
		return uuid.Nil, s.err
	}
	return convID, nil
}

func (s *stubNegotiation) LatestProposal(_ context.Context, _ uuid.UUID) (*service.ProposalView, error) {
	return s.latest, s.err
}

func (s *stubNegotiation) MessageHistory(_ context.Context, _ uuid.UUID) ([]service.MessageView, error) {
	return s.history, s.err
}

func (s *stubNegotiation) UpdateStatus(_ context.Context, _ uuid.UUID, _ models.ConversationStatus, _ *uuid.UUID) error {
	return s.err
}

func (s *stubNegotiation) MarkRead(_ context.Context, _, _ uuid.UUID) error {
	s.markedRead++
	return nil
}

func newTestApp(stub *stubNegotiation, userID uuid.UUID) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != uuid.Nil {
			c.Locals("userId", userID.String())
		}
		return c.Next()
	})

	h := NewConversationHandler(stub)
	app.Get("/api/conversations", h.GetConversations)
	app.Post("/api/conversations", h.StartNegotiation)
	app.Get("/api/conversations/exists/:userId", h.ConversationExists)
	app.Get("/api/conversations/:id", h.GetConversation)
	app.Get("/api/conversations/:id/messages", h.GetMessages)
	app.Get("/api/conversations/:id/proposal", h.GetLatestProposal)
	app.Post("/api/conversations/:id/offers", h.SubmitCounterOffer)
	app.Patch("/api/conversations/:id/status", h.UpdateStatus)
	return app
}

func decode(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestStartNegotiationEndpoint(t *testing.T) {
	me := uuid.New()
	convID := uuid.New()
	stub := &stubNegotiation{startedConv: convID}
	app := newTestApp(stub, me)

	body := fmt.Sprintf(`{
		"participant": %q,
		"service_id": %q,
		"proposal": {"message_text": "Can you do this for $500?", "budget": 500, "deadline": "2024-12-01"}
	}`, uuid.New(), uuid.New())

	req := httptest.NewRequest("POST", "/api/conversations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	out := decode(t, resp.Body)
	data := out["data"].(map[string]any)
	if data["conversation_id"] != convID.String() {
		t.Fatalf("conversation_id = %v, want %s", data["conversation_id"], convID)
	}
}

func TestStartNegotiationRejectsIncompleteTerms(t *testing.T) {
	app := newTestApp(&stubNegotiation{startedConv: uuid.New()}, uuid.New())

	// missing budget and deadline
	body := fmt.Sprintf(`{"participant": %q, "service_id": %q, "proposal": {"message_text": "hi"}}`,
		uuid.New(), uuid.New())
	req := httptest.NewRequest("POST", "/api/conversations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	out := decode(t, resp.Body)
	if out["success"] != false {
		t.Fatal("expected success=false envelope")
	}
}

func TestUnauthorizedWithoutLocals(t *testing.T) {
	app := newTestApp(&stubNegotiation{}, uuid.Nil)

	req := httptest.NewRequest("GET", "/api/conversations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	app := newTestApp(&stubNegotiation{err: service.ErrNotFound}, uuid.New())

	req := httptest.NewRequest("GET", "/api/conversations/"+uuid.NewString(), nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGetConversationRejectsBadID(t *testing.T) {
	app := newTestApp(&stubNegotiation{}, uuid.New())

	req := httptest.NewRequest("GET", "/api/conversations/not-a-uuid", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLatestProposalNull(t *testing.T) {
	app := newTestApp(&stubNegotiation{latest: nil}, uuid.New())

	req := httptest.NewRequest("GET", "/api/conversations/"+uuid.NewString()+"/proposal", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	out := decode(t, resp.Body)
	if data, present := out["data"]; !present || data != nil {
		t.Fatalf("data = %v, want explicit null", out["data"])
	}
}

func TestGetMessagesMarksRead(t *testing.T) {
	stub := &stubNegotiation{history: []service.MessageView{{ID: uuid.NewString(), Type: "text", Text: "hi"}}}
	app := newTestApp(stub, uuid.New())

	req := httptest.NewRequest("GET", "/api/conversations/"+uuid.NewString()+"/messages", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if stub.markedRead != 1 {
		t.Fatalf("markedRead = %d, want 1", stub.markedRead)
	}
	out := decode(t, resp.Body)
	if len(out["data"].([]any)) != 1 {
		t.Fatalf("data = %v, want one message", out["data"])
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	stub := &stubNegotiation{err: fmt.Errorf("%w: cannot move from completed to project", service.ErrValidation)}
	app := newTestApp(stub, uuid.New())

	req := httptest.NewRequest("PATCH", "/api/conversations/"+uuid.NewString()+"/status",
		strings.NewReader(`{"status": "project"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
