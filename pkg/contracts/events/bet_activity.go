package events

import "time"

// ActivityKind identifica a mutação que gerou o evento.
type ActivityKind string

const (
	BetCreated        ActivityKind = "bet_created"
	BetUpdated        ActivityKind = "bet_updated"
	BetResultChanged  ActivityKind = "bet_result_changed"
	BetDeleted        ActivityKind = "bet_deleted"
	BetsImported      ActivityKind = "bets_imported"
	TransactionChange ActivityKind = "transaction_changed"
	UserChanged       ActivityKind = "user_changed"
)

// Evento publicado no tópico "bet_activity" pelo tracker-service.
// O stats-processor-worker recalcula leaderboard e resumo do usuário a cada evento.
type BetActivity struct {
	Kind   ActivityKind `json:"kind"`
	UserID string       `json:"userId"`
	BetID  string       `json:"betId,omitempty"`
	Result string       `json:"result,omitempty"` // novo resultado em bet_result_changed
	Count  int          `json:"count,omitempty"`  // linhas gravadas em bets_imported
	Ts     time.Time    `json:"ts"`
}
