package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/service"
)

type ConversationHandler struct {
	Svc service.Negotiation
}

func NewConversationHandler(svc service.Negotiation) *ConversationHandler {
	return &ConversationHandler{Svc: svc}
}

// GetConversations returns the authenticated user's conversations, most
// recent activity first, each with resolved participants and the last
// message (or null).
func (h *ConversationHandler) GetConversations(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	out, err := h.Svc.ListConversations(c.Context(), userUUID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

// ConversationExists tells the client whether to open an existing chat or
// start a new negotiation when a user is picked.
func (h *ConversationHandler) ConversationExists(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	otherUUID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid user ID")
	}

	exists, err := h.Svc.ConversationExists(c.Context(), userUUID, otherUUID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"exists": exists}})
}

func (h *ConversationHandler) GetConversation(c *fiber.Ctx) error {
	if _, err := getUserUUID(c); err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	convUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid conversation ID")
	}

	detail, err := h.Svc.GetConversation(c.Context(), convUUID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": detail})
}

type proposalTermsReq struct {
	MessageText string `json:"message_text"`
	Budget      int64  `json:"budget"`
	Deadline    string `json:"deadline"` // 2006-01-02
}

func (r proposalTermsReq) terms() service.ProposalTerms {
	deadline, err := time.Parse("2006-01-02", r.Deadline)
	if err != nil {
		deadline = time.Time{} // service rejects the zero value
	}
	return service.ProposalTerms{
		MessageText: r.MessageText,
		Budget:      r.Budget,
		Deadline:    deadline,
	}
}

type startNegotiationReq struct {
	Participant string           `json:"participant"`
	ServiceID   string           `json:"service_id"`
	Proposal    proposalTermsReq `json:"proposal"`
}

// StartNegotiation creates or continues the conversation for
// {me, participant, service} and appends the opening proposal.
func (h *ConversationHandler) StartNegotiation(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req startNegotiationReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	otherUUID, err := uuid.Parse(req.Participant)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid participant ID")
	}
	serviceUUID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid service ID")
	}

	convID, err := h.Svc.StartNegotiation(c.Context(), userUUID, otherUUID, serviceUUID, req.Proposal.terms())
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"conversation_id": convID},
	})
}

type counterOfferReq struct {
	ServiceID string           `json:"service_id"`
	Proposal  proposalTermsReq `json:"proposal"`
}

func (h *ConversationHandler) SubmitCounterOffer(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	convUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid conversation ID")
	}

	var req counterOfferReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	// service_id is optional on counter-offers; empty falls back to the
	// conversation's own service
	serviceUUID := uuid.Nil
	if req.ServiceID != "" {
		serviceUUID, err = uuid.Parse(req.ServiceID)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "Invalid service ID")
		}
	}

	convID, err := h.Svc.SubmitCounterOffer(c.Context(), convUUID, userUUID, serviceUUID, req.Proposal.terms())
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"conversation_id": convID},
	})
}

// GetLatestProposal returns the newest proposal, or data: null when the
// conversation has none yet.
func (h *ConversationHandler) GetLatestProposal(c *fiber.Ctx) error {
	if _, err := getUserUUID(c); err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	convUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid conversation ID")
	}

	p, err := h.Svc.LatestProposal(c.Context(), convUUID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": p})
}

// GetMessages returns the full ordered history, proposal-typed entries
// carrying their resolved terms. Fetching also marks the other party's
// messages read.
func (h *ConversationHandler) GetMessages(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	convUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid conversation ID")
	}

	msgs, err := h.Svc.MessageHistory(c.Context(), convUUID)
	if err != nil {
		return serviceError(c, err)
	}

	if err := h.Svc.MarkRead(c.Context(), convUUID, userUUID); err != nil {
		log.Println("Error marking messages as read:", err)
		// don't fail the fetch over it
	}

	return c.JSON(fiber.Map{"success": true, "data": msgs})
}

type updateStatusReq struct {
	Status    string  `json:"status"`
	ProjectID *string `json:"project_id"`
}

// UpdateStatus persists an externally triggered status transition
// (accepted offer became a project, project finished, either side
// cancelled). The trigger logic lives with the caller.
func (h *ConversationHandler) UpdateStatus(c *fiber.Ctx) error {
	if _, err := getUserUUID(c); err != nil {
		return fail(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	convUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid conversation ID")
	}

	var req updateStatusReq
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	var projectID *uuid.UUID
	if req.ProjectID != nil {
		pid, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			return fail(c, fiber.StatusBadRequest, "Invalid project ID")
		}
		projectID = &pid
	}

	if err := h.Svc.UpdateStatus(c.Context(), convUUID, models.ConversationStatus(req.Status), projectID); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
