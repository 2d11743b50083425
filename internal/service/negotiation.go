// Package service implements the negotiation core: conversation creation,
// proposals and counter-offers, message history, and the status writes the
// surrounding workflow pushes in. It is the only place with business rules;
// the stores stay dumb.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/directory"
	"github.com/gigconnect/backend/internal/models"
	"github.com/gigconnect/backend/internal/store"
)

// ProposalTerms is one offer or counter-offer as submitted by a party.
type ProposalTerms struct {
	MessageText string
	Budget      int64
	Deadline    time.Time
}

type Negotiation interface {
	ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error)
	GetConversation(ctx context.Context, id uuid.UUID) (*ConversationDetail, error)
	ConversationExists(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
	StartNegotiation(ctx context.Context, employerID, freelancerID, serviceID uuid.UUID, terms ProposalTerms) (uuid.UUID, error)
	SubmitCounterOffer(ctx context.Context, convID, senderID, serviceID uuid.UUID, terms ProposalTerms) (uuid.UUID, error)
	LatestProposal(ctx context.Context, convID uuid.UUID) (*ProposalView, error)
	MessageHistory(ctx context.Context, convID uuid.UUID) ([]MessageView, error)
	UpdateStatus(ctx context.Context, convID uuid.UUID, status models.ConversationStatus, projectID *uuid.UUID) error
	MarkRead(ctx context.Context, convID, readerID uuid.UUID) error
}

// Broadcaster fans a freshly persisted message out to live subscribers of
// its conversation. Delivery is best effort.
type Broadcaster interface {
	Publish(conversationID uuid.UUID, msg MessageView)
}

// BroadcastFunc adapts a plain function to the Broadcaster interface.
type BroadcastFunc func(conversationID uuid.UUID, msg MessageView)

func (f BroadcastFunc) Publish(conversationID uuid.UUID, msg MessageView) {
	f(conversationID, msg)
}

// Notifier reaches the counterpart through an out-of-band channel (Redis
// pub/sub in production) for clients with no live socket.
type Notifier interface {
	NewMessage(ctx context.Context, recipientID uuid.UUID, msg MessageView)
}

type negotiationService struct {
	convs     store.ConversationStore
	msgs      store.MessageStore
	proposals store.ProposalStore
	users     directory.UserDirectory
	gigs      directory.GigDirectory
	broadcast Broadcaster
	notify    Notifier
}

func NewNegotiation(
	convs store.ConversationStore,
	msgs store.MessageStore,
	proposals store.ProposalStore,
	users directory.UserDirectory,
	gigs directory.GigDirectory,
	broadcast Broadcaster,
	notify Notifier,
) Negotiation {
	return &negotiationService{
		convs:     convs,
		msgs:      msgs,
		proposals: proposals,
		users:     users,
		gigs:      gigs,
		broadcast: broadcast,
		notify:    notify,
	}
}

func (s *negotiationService) ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error) {
	convs, err := s.convs.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(convs)*2)
	for _, c := range convs {
		ids = append(ids, c.EmployerID, c.FreelancerID)
	}
	profiles, err := s.users.Profiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		last, err := s.lastMessageView(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ConversationSummary{
			ID:            c.ID.String(),
			Participants:  []directory.Profile{profiles[c.EmployerID], profiles[c.FreelancerID]},
			Status:        string(c.Status),
			ServiceID:     c.ServiceID.String(),
			LastMessage:   last,
			LastMessageAt: c.LastMessageAt,
			CreatedAt:     c.CreatedAt,
		})
	}
	return out, nil
}

func (s *negotiationService) lastMessageView(ctx context.Context, convID uuid.UUID) (*MessageView, error) {
	last, err := s.msgs.LastByConversation(ctx, convID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	p, err := s.resolveProposal(ctx, last)
	if err != nil {
		return nil, err
	}
	view := NewMessageView(last, p)
	return &view, nil
}

func (s *negotiationService) resolveProposal(ctx context.Context, msg *models.Message) (*models.Proposal, error) {
	if msg.ProposalID == nil {
		return nil, nil
	}
	proposals, err := s.proposals.ListByConversation(ctx, msg.ConversationID)
	if err != nil {
		return nil, err
	}
	for i := range proposals {
		if proposals[i].ID == *msg.ProposalID {
			return &proposals[i], nil
		}
	}
	return nil, nil
}

func (s *negotiationService) GetConversation(ctx context.Context, id uuid.UUID) (*ConversationDetail, error) {
	// Note: access is deliberately not restricted to participants here,
	// matching current product behavior. Tracked in DESIGN.md.
	conv, err := s.convs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	profiles, err := s.users.Profiles(ctx, []uuid.UUID{conv.EmployerID, conv.FreelancerID})
	if err != nil {
		return nil, err
	}

	title, err := s.gigs.Title(ctx, conv.ServiceID)
	if err != nil && !errors.Is(err, directory.ErrNotFound) {
		return nil, err
	}

	detail := &ConversationDetail{
		ID:           conv.ID.String(),
		Participants: []directory.Profile{profiles[conv.EmployerID], profiles[conv.FreelancerID]},
		Status:       string(conv.Status),
		ServiceID:    conv.ServiceID.String(),
		ServiceTitle: title,
		CreatedAt:    conv.CreatedAt,
	}
	if conv.ProjectID != nil {
		pid := conv.ProjectID.String()
		detail.ProjectID = &pid
	}
	return detail, nil
}

func (s *negotiationService) ConversationExists(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	return s.convs.ExistsBetween(ctx, userID, otherID)
}

func validateTerms(terms ProposalTerms) error {
	if terms.MessageText == "" {
		return fmt.Errorf("%w: message text is required", ErrValidation)
	}
	if terms.Budget <= 0 {
		return fmt.Errorf("%w: budget must be positive", ErrValidation)
	}
	if terms.Deadline.IsZero() {
		return fmt.Errorf("%w: deadline is required", ErrValidation)
	}
	return nil
}

// StartNegotiation finds or creates the conversation for the
// {employer, freelancer, service} key and appends the opening proposal.
// Creation races against the unique index and falls back to the winner's
// row, so one key always yields one conversation.
func (s *negotiationService) StartNegotiation(ctx context.Context, employerID, freelancerID, serviceID uuid.UUID, terms ProposalTerms) (uuid.UUID, error) {
	if freelancerID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: counterpart is required", ErrValidation)
	}
	if serviceID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: service id is required", ErrValidation)
	}
	if employerID == freelancerID {
		return uuid.Nil, fmt.Errorf("%w: cannot negotiate with yourself", ErrValidation)
	}
	if err := validateTerms(terms); err != nil {
		return uuid.Nil, err
	}

	key := models.PairKey(employerID, freelancerID)

	var conv *models.Conversation
	for attempt := 0; attempt < 3; attempt++ {
		found, err := s.convs.FindByKey(ctx, key, serviceID)
		if err == nil {
			conv = found
			break
		}
		if !errors.Is(err, store.ErrNotFound) {
			return uuid.Nil, err
		}

		candidate := &models.Conversation{
			EmployerID:     employerID,
			FreelancerID:   freelancerID,
			ParticipantKey: key,
			ServiceID:      serviceID,
			Status:         models.StatusProposal,
			LastMessageAt:  time.Now(),
		}
		err = s.convs.Create(ctx, candidate)
		if err == nil {
			conv = candidate
			break
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return uuid.Nil, err
		}
		// lost the create race; loop re-reads the winner
	}
	if conv == nil {
		return uuid.Nil, fmt.Errorf("conversation create race did not settle")
	}

	if err := s.appendProposal(ctx, conv, employerID, serviceID, terms); err != nil {
		return uuid.Nil, err
	}
	return conv.ID, nil
}

func (s *negotiationService) SubmitCounterOffer(ctx context.Context, convID, senderID, serviceID uuid.UUID, terms ProposalTerms) (uuid.UUID, error) {
	if err := validateTerms(terms); err != nil {
		return uuid.Nil, err
	}

	conv, err := s.convs.FindByID(ctx, convID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}
	if senderID != conv.EmployerID && senderID != conv.FreelancerID {
		return uuid.Nil, fmt.Errorf("%w: sender is not part of this conversation", ErrValidation)
	}
	if serviceID == uuid.Nil {
		serviceID = conv.ServiceID
	}

	if err := s.appendProposal(ctx, conv, senderID, serviceID, terms); err != nil {
		return uuid.Nil, err
	}
	return conv.ID, nil
}

func (s *negotiationService) appendProposal(ctx context.Context, conv *models.Conversation, senderID, serviceID uuid.UUID, terms ProposalTerms) error {
	p := &models.Proposal{
		ConversationID: conv.ID,
		ServiceID:      serviceID,
		MessageText:    terms.MessageText,
		Budget:         terms.Budget,
		Deadline:       terms.Deadline,
	}
	msg := &models.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Type:           models.MessageProposal,
		Text:           terms.MessageText,
	}
	if err := s.proposals.Append(ctx, p, msg); err != nil {
		return err
	}

	s.emit(ctx, conv, NewMessageView(msg, p))
	return nil
}

// emit publishes to live subscribers and pings the counterpart's
// notification channel. Both are fire-and-forget.
func (s *negotiationService) emit(ctx context.Context, conv *models.Conversation, view MessageView) {
	if s.broadcast != nil {
		s.broadcast.Publish(conv.ID, view)
	}
	if s.notify != nil {
		recipient := conv.EmployerID
		if view.SenderID == conv.EmployerID.String() {
			recipient = conv.FreelancerID
		}
		s.notify.NewMessage(ctx, recipient, view)
	}
}

func (s *negotiationService) LatestProposal(ctx context.Context, convID uuid.UUID) (*ProposalView, error) {
	p, err := s.proposals.Latest(ctx, convID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return proposalView(p), nil
}

func (s *negotiationService) MessageHistory(ctx context.Context, convID uuid.UUID) ([]MessageView, error) {
	msgs, err := s.msgs.ListByConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	proposals, err := s.proposals.ListByConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*models.Proposal, len(proposals))
	for i := range proposals {
		byID[proposals[i].ID] = &proposals[i]
	}

	out := make([]MessageView, 0, len(msgs))
	for i := range msgs {
		var p *models.Proposal
		if msgs[i].ProposalID != nil {
			p = byID[*msgs[i].ProposalID]
		}
		out = append(out, NewMessageView(&msgs[i], p))
	}
	return out, nil
}

// UpdateStatus persists an externally triggered transition. The core never
// decides when a negotiation becomes a project or ends; it only refuses
// writes that move backwards or out of a terminal state.
func (s *negotiationService) UpdateStatus(ctx context.Context, convID uuid.UUID, status models.ConversationStatus, projectID *uuid.UUID) error {
	switch status {
	case models.StatusProposal, models.StatusProject, models.StatusCompleted, models.StatusCancelled:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	conv, err := s.convs.FindByID(ctx, convID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !models.ValidTransition(conv.Status, status) {
		return fmt.Errorf("%w: cannot move %s to %s", ErrValidation, conv.Status, status)
	}
	return s.convs.UpdateStatus(ctx, convID, status, projectID)
}

func (s *negotiationService) MarkRead(ctx context.Context, convID, readerID uuid.UUID) error {
	if _, err := s.convs.FindByID(ctx, convID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.msgs.MarkRead(ctx, convID, readerID)
}
