package handlers

import (
	"context"
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/gigconnect/backend/internal/realtime"
	"github.com/gigconnect/backend/internal/utils"
)

type WSHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
}

func NewWSHandler(hub *realtime.Hub, jwtSecret string) *WSHandler {
	return &WSHandler{Hub: hub, JWTSecret: jwtSecret}
}

// wsFrame is one client->server event. Type is one of
// join-conversation, leave-conversation, send-message.
type wsFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Sender         string `json:"sender"`
	Text           string `json:"text"`
}

// Handle runs one websocket session. Browsers can't set an Authorization
// header on the WS upgrade, so the token rides a query param.
func (h *WSHandler) Handle(c *websocket.Conn) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		log.Println("WebSocket: token parameter missing")
		c.Close()
		return
	}

	claims, err := utils.ParseJWT(h.JWTSecret, tokenStr)
	if err != nil {
		log.Println("WebSocket: invalid token:", err)
		c.Close()
		return
	}

	userUUID, err := uuid.Parse(claims.UserID)
	if err != nil {
		log.Println("WebSocket: invalid uid claim:", claims.UserID)
		c.Close()
		return
	}

	session := realtime.NewSession(userUUID)
	log.Printf("WebSocket: user %s connected (session %s)", userUUID, session.ID)
	defer func() {
		h.Hub.Disconnect(session)
		log.Printf("WebSocket: user %s disconnected", userUUID)
	}()

	// write pump: hub -> client
	go func() {
		for msg := range session.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	for {
		var frame wsFrame
		if err := c.ReadJSON(&frame); err != nil {
			log.Printf("WebSocket read error for user %s: %v", userUUID, err)
			return
		}

		switch frame.Type {
		case "join-conversation":
			convUUID, err := uuid.Parse(frame.ConversationID)
			if err != nil {
				continue
			}
			h.Hub.Join(session, convUUID)

		case "leave-conversation":
			convUUID, err := uuid.Parse(frame.ConversationID)
			if err != nil {
				continue
			}
			h.Hub.Leave(session, convUUID)

		case "send-message":
			convUUID, err := uuid.Parse(frame.ConversationID)
			if err != nil {
				continue
			}
			// sender in the frame is ignored; the session's identity wins
			if err := h.Hub.SubmitChatText(context.Background(), session, convUUID, session.UserID, frame.Text); err != nil {
				log.Printf("WebSocket: send-message failed for user %s: %v", userUUID, err)
			}

		case "pong":
			// keepalive, nothing to do

		default:
			log.Printf("WebSocket: unknown frame type %q from user %s", frame.Type, userUUID)
		}
	}
}
