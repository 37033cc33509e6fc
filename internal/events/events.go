// Package events публикует события жизненного цикла студента для внешних потребителей
// (например, рассыльщика писем). Ошибки публикации только логируются.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/student-records/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/models"
)

// Типы событий совпадают с ключами маршрутизации.
const (
	StudentRegistered = rabbitmq.RoutingStudentRegistered
	StudentCreated    = rabbitmq.RoutingStudentCreated
	StudentDeleted    = rabbitmq.RoutingStudentDeleted
)

// StudentEvent: сообщение о студенте. Не содержит паролей и токенов.
type StudentEvent struct {
	Type       string    `json:"type"`
	AccountID  string    `json:"accountId"`
	ProfileID  string    `json:"profileId,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Course     string    `json:"course,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewStudentEvent собирает событие из профиля.
func NewStudentEvent(typ string, p *models.Profile) StudentEvent {
	return StudentEvent{
		Type:       typ,
		AccountID:  p.AccountID,
		ProfileID:  p.ID,
		Name:       p.Name,
		Email:      p.Email,
		Course:     p.Course,
		OccurredAt: time.Now().UTC(),
	}
}

// MessagePublisher отправляет сообщение с ключом маршрутизации.
type MessagePublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Bus публикует события. Bus с nil-издателем ничего не отправляет.
type Bus struct {
	pub MessagePublisher
	log *slog.Logger
}

// NewBus создаёт шину событий. pub может быть nil, если брокер не настроен.
func NewBus(pub MessagePublisher, log *slog.Logger) *Bus {
	return &Bus{pub: pub, log: log}
}

// Emit публикует событие и никогда не возвращает ошибку вызывающему.
func (b *Bus) Emit(ctx context.Context, e StudentEvent) {
	const op = "events.Emit"
	if b == nil || b.pub == nil {
		return
	}
	if err := b.pub.Publish(context.WithoutCancel(ctx), e.Type, e); err != nil {
		b.log.Warn("failed to publish event",
			slog.String("op", op),
			slog.String("type", e.Type),
			slog.String("account_id", e.AccountID),
			sl.Err(err))
	}
}
