package events

// Chaves Redis compartilhadas entre stats-processor-worker (escrita) e leaderboard-service (leitura)
const LeaderboardCacheKey = "leaderboard:current"

func SummaryCacheKey(userID string) string { return "summary:user:" + userID }
