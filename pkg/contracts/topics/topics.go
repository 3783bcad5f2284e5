package topics

const (
	// Atividade de apostas/transações (tracker-service -> stats-processor-worker)
	BetActivity = "bet_activity"

	// DLQs
	BetActivityDLQ = "bet_activity_dlq"
)
