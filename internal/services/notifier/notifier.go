// Package notifier рассылает письма по событиям жизненного цикла студента.
package notifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/student-records/internal/events"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/lib/smtp"
)

// ErrEmptyRecipient возвращается для события без адреса.
var ErrEmptyRecipient = errors.New("event has no recipient email")

// Service формирует и отправляет письма.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создаёт Service.
func New(log *slog.Logger, transport smtp.TransportInterface) *Service {
	return &Service{transport: transport, log: log}
}

// Message: письмо перед отправкой.
type Message struct {
	To      string
	Subject string
	Body    string
}

// HandleRegistered отправляет приветствие студенту, зарегистрировавшемуся самостоятельно.
func (s *Service) HandleRegistered(body []byte) error {
	const op = "services.notifier.HandleRegistered"

	e, err := decode(body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Send(Welcome(e)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// HandleCreated отправляет приглашение студенту, созданному администратором.
func (s *Service) HandleCreated(body []byte) error {
	const op = "services.notifier.HandleCreated"

	e, err := decode(body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.Send(Invitation(e)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func decode(body []byte) (events.StudentEvent, error) {
	var e events.StudentEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return e, fmt.Errorf("error unmarshalling message: %w", err)
	}
	if strings.TrimSpace(e.Email) == "" {
		return e, ErrEmptyRecipient
	}
	return e, nil
}

// Welcome: письмо после регистрации.
func Welcome(e events.StudentEvent) Message {
	body := fmt.Sprintf("Hello, %s!\n\nYour student account has been created.", e.Name)
	if e.Course != "" {
		body += fmt.Sprintf("\nCourse: %s.", e.Course)
	}
	return Message{To: e.Email, Subject: "Welcome to Student Records", Body: body}
}

// Invitation: письмо студенту, созданному администратором. Временный пароль
// в письмо не попадает, студент задаёт свой через сброс пароля.
func Invitation(e events.StudentEvent) Message {
	body := fmt.Sprintf(
		"Hello, %s!\n\nAn administrator has enrolled you in %s.\n"+
			"To sign in, request a password reset for %s.",
		e.Name, e.Course, e.Email)
	return Message{To: e.Email, Subject: "You have been enrolled", Body: body}
}

// Send отправляет письмо через транспорт.
func (s *Service) Send(m Message) error {
	from := s.transport.Sender()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + m.To,
		"Subject: " + m.Subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		m.Body,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer func() {
		// после Quit соединение уже закрыто
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM %s: %w", from, err)
	}
	if err := client.Rcpt(m.To); err != nil {
		return fmt.Errorf("RCPT TO: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	if err := client.Quit(); err != nil {
		s.log.Warn("failed to quit smtp session", sl.Err(err))
	}

	s.log.Info("email sent", slog.String("subject", m.Subject))
	return nil
}
