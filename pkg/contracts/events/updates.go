package events

import "encoding/json"

// Topics de assinatura do WebSocket do leaderboard-service
const (
	TopicLeaderboard   = "leaderboard"
	TopicSummaryPrefix = "summary:"
)

func SummaryTopic(userID string) string { return TopicSummaryPrefix + userID }

// Envelope publicado no Redis Pub/Sub e repassado aos clientes WebSocket.
// Payload é o leaderboard completo ou o resumo de um usuário, já em JSON.
type Update struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}
