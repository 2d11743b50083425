package realtime

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gigconnect/backend/internal/service"
)

// NewRedis creates the Redis client used for the notification channel.
func NewRedis() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	log.Printf("Redis client created (addr: %s)", addr)
	return rdb
}

// RedisNotifier publishes new-message notifications on
// notifications:<recipientId> so a push worker can reach users without a
// live socket. Fire and forget.
type RedisNotifier struct {
	RDB *redis.Client
}

func NewRedisNotifier(rdb *redis.Client) *RedisNotifier {
	return &RedisNotifier{RDB: rdb}
}

func (n *RedisNotifier) NewMessage(ctx context.Context, recipientID uuid.UUID, msg service.MessageView) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":            "chat_message",
		"conversation_id": msg.ConversationID,
		"sender_id":       msg.SenderID,
		"text":            msg.Text,
	})
	if err != nil {
		return
	}
	if err := n.RDB.Publish(ctx, "notifications:"+recipientID.String(), payload).Err(); err != nil {
		log.Printf("realtime: publish notification: %v", err)
	}
}
