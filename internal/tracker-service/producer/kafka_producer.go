package producer

import (
	"context"
	"time"

	"github.com/radieske/betting-tracker/internal/shared/kafka"
	"github.com/radieske/betting-tracker/pkg/contracts/events"
)

// KafkaPublisher publica BetActivity no tópico bet_activity, com o userId como key
type KafkaPublisher struct {
	Writer kafka.MessageWriter
	now    func() time.Time
}

func NewKafkaPublisher(w kafka.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: w, now: time.Now}
}

func (p *KafkaPublisher) PublishActivity(ctx context.Context, e events.BetActivity) error {
	if e.Ts.IsZero() {
		e.Ts = p.now().UTC()
	}
	return kafka.WriteJSON(ctx, p.Writer, e.UserID, e)
}
