// Package chatclient is the client-side state for the inbox: the
// conversation list, the active conversation's messages, and the
// negotiation commands. It sits on two small ports — an API for the HTTP
// surface and a Socket for the realtime channel — so UIs and tests plug in
// their own transports.
//
// Not safe for concurrent use; callers serialize access the way a UI event
// loop does.
package chatclient

import (
	"context"
	"errors"
	"time"
)

var ErrNoActiveConversation = errors.New("no active conversation")

type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type Proposal struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	ServiceID      string    `json:"service_id"`
	MessageText    string    `json:"message_text"`
	Budget         int64     `json:"budget"`
	Deadline       string    `json:"deadline"`
	CreatedAt      time.Time `json:"created_at"`
}

type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Type           string    `json:"message_type"`
	Text           string    `json:"text"`
	Proposal       *Proposal `json:"proposal,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type Conversation struct {
	ID            string    `json:"id"`
	Participants  []Profile `json:"participants"`
	Status        string    `json:"status"`
	ServiceID     string    `json:"service_id"`
	LastMessage   *Message  `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	CreatedAt     time.Time `json:"created_at"`
}

type ProposalTerms struct {
	MessageText string `json:"message_text"`
	Budget      int64  `json:"budget"`
	Deadline    string `json:"deadline"`
}

// API is the HTTP command surface the state machine drives.
type API interface {
	ListConversations(ctx context.Context) ([]Conversation, error)
	ConversationExists(ctx context.Context, otherUserID string) (bool, error)
	StartNegotiation(ctx context.Context, otherUserID, serviceID string, terms ProposalTerms) (string, error)
	MessageHistory(ctx context.Context, conversationID string) ([]Message, error)
	LatestProposal(ctx context.Context, conversationID string) (*Proposal, error)
}

// Socket is the realtime channel. Incoming messages arrive through
// State.HandleEvent, driven by whatever read loop owns the connection.
type Socket interface {
	Join(conversationID string) error
	Leave(conversationID string) error
	Send(conversationID, senderID, text string) error
}

type State struct {
	api  API
	sock Socket
	user Profile

	conversations  []Conversation
	active         string
	messages       []Message
	latestProposal *Proposal
}

func New(api API, sock Socket, user Profile) *State {
	return &State{api: api, sock: sock, user: user}
}

func (s *State) Conversations() []Conversation { return s.conversations }
func (s *State) ActiveConversation() string    { return s.active }
func (s *State) Messages() []Message           { return s.messages }
func (s *State) LatestProposal() *Proposal     { return s.latestProposal }
func (s *State) CurrentUser() Profile          { return s.user }

// Refresh reloads the conversation list.
func (s *State) Refresh(ctx context.Context) error {
	convs, err := s.api.ListConversations(ctx)
	if err != nil {
		return err
	}
	s.conversations = convs
	return nil
}

// Activate switches to a conversation: join its realtime group, then load
// history and the latest proposal. Any previously active conversation is
// left first.
func (s *State) Activate(ctx context.Context, conversationID string) error {
	if s.active == conversationID {
		return nil
	}
	if s.active != "" {
		s.Deactivate()
	}

	if err := s.sock.Join(conversationID); err != nil {
		return err
	}
	msgs, err := s.api.MessageHistory(ctx, conversationID)
	if err != nil {
		s.sock.Leave(conversationID)
		return err
	}
	p, err := s.api.LatestProposal(ctx, conversationID)
	if err != nil {
		s.sock.Leave(conversationID)
		return err
	}

	s.active = conversationID
	s.messages = msgs
	s.latestProposal = p
	return nil
}

func (s *State) Deactivate() {
	if s.active == "" {
		return
	}
	s.sock.Leave(s.active)
	s.active = ""
	s.messages = nil
	s.latestProposal = nil
}

// HandleEvent consumes one published message. The active conversation's
// list is append-only — publishes arrive in creation order — and every
// conversation's last-message preview is refreshed so the sidebar stays
// current without a refetch.
func (s *State) HandleEvent(msg Message) {
	for i := range s.conversations {
		if s.conversations[i].ID == msg.ConversationID {
			m := msg
			s.conversations[i].LastMessage = &m
			s.conversations[i].LastMessageAt = msg.CreatedAt
			break
		}
	}

	if msg.ConversationID == s.active {
		s.messages = append(s.messages, msg)
		if msg.Proposal != nil {
			s.latestProposal = msg.Proposal
		}
	}
}

// SendChatText emits the text into the active conversation's realtime
// channel. The echo comes back through HandleEvent once persisted.
func (s *State) SendChatText(text string) error {
	if s.active == "" {
		return ErrNoActiveConversation
	}
	return s.sock.Send(s.active, s.user.ID, text)
}

// StartConversationWith opens the existing conversation with the user if
// one exists, otherwise starts a new negotiation and activates it.
func (s *State) StartConversationWith(ctx context.Context, otherUserID, serviceID string, terms ProposalTerms) error {
	if otherUserID == s.user.ID {
		return errors.New("cannot open a conversation with yourself")
	}

	exists, err := s.api.ConversationExists(ctx, otherUserID)
	if err != nil {
		return err
	}
	if exists {
		for _, conv := range s.conversations {
			for _, p := range conv.Participants {
				if p.ID == otherUserID {
					return s.Activate(ctx, conv.ID)
				}
			}
		}
		// list is stale; refetch and retry the match
		if err := s.Refresh(ctx); err != nil {
			return err
		}
		for _, conv := range s.conversations {
			for _, p := range conv.Participants {
				if p.ID == otherUserID {
					return s.Activate(ctx, conv.ID)
				}
			}
		}
	}

	convID, err := s.api.StartNegotiation(ctx, otherUserID, serviceID, terms)
	if err != nil {
		return err
	}
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	return s.Activate(ctx, convID)
}
