package notifier

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/student-records/internal/events"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/lib/smtp"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) Sender() string {
	return m.Called().String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error { return m.Called(from).Error(0) }

func (m *MockSMTPClient) Rcpt(to string) error { return m.Called(to).Error(0) }

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Quit() error { return m.Called().Error(0) }

func (m *MockSMTPClient) Close() error { return m.Called().Error(0) }

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func eventBody(t *testing.T, e events.StudentEvent) []byte {
	t.Helper()
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return b
}

func happyClient(to string) (*MockSMTPClient, *bufferCloser) {
	client := new(MockSMTPClient)
	buf := &bufferCloser{}
	client.On("Mail", "noreply@example.com").Return(nil).Once()
	client.On("Rcpt", to).Return(nil).Once()
	client.On("Data").Return(buf, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()
	return client, buf
}

func TestService_Handlers(t *testing.T) {
	ev := events.StudentEvent{
		Type:      events.StudentCreated,
		AccountID: "acc-1",
		Name:      "Alice",
		Email:     "alice@example.com",
		Course:    "Physics",
	}

	tests := []struct {
		name        string
		handle      func(*Service, []byte) error
		wantSubject string
		wantBody    string
	}{
		{"registered", (*Service).HandleRegistered, "Subject: Welcome to Student Records", "Hello, Alice!"},
		{"created", (*Service).HandleCreated, "Subject: You have been enrolled", "enrolled you in Physics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			client, buf := happyClient("alice@example.com")
			transport.On("Sender").Return("noreply@example.com")
			transport.On("Connect").Return(client, nil).Once()

			err := tt.handle(New(sl.Discard(), transport), eventBody(t, ev))
			require.NoError(t, err)

			out := buf.String()
			assert.True(t, buf.closed)
			assert.Contains(t, out, "From: noreply@example.com\r\n")
			assert.Contains(t, out, "To: alice@example.com\r\n")
			assert.Contains(t, out, tt.wantSubject)
			assert.Contains(t, out, tt.wantBody)
			assert.NotContains(t, out, "acc-1")
			transport.AssertExpectations(t)
			client.AssertExpectations(t)
		})
	}
}

func TestService_HandleErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    []byte
		setup   func(*MockTransport)
		wantErr error
		wantMsg string
	}{
		{
			name:    "invalid json",
			body:    []byte(`invalid json`),
			setup:   func(*MockTransport) {},
			wantMsg: "error unmarshalling message",
		},
		{
			name:    "no recipient",
			body:    []byte(`{"type":"student.created","name":"Alice"}`),
			setup:   func(*MockTransport) {},
			wantErr: ErrEmptyRecipient,
		},
		{
			name: "connection error",
			body: []byte(`{"type":"student.created","name":"Alice","email":"alice@example.com"}`),
			setup: func(tr *MockTransport) {
				tr.On("Sender").Return("noreply@example.com")
				tr.On("Connect").Return(nil, errors.New("connection refused")).Once()
			},
			wantMsg: "connection refused",
		},
		{
			name: "recipient rejected",
			body: []byte(`{"type":"student.created","name":"Alice","email":"alice@example.com"}`),
			setup: func(tr *MockTransport) {
				client := new(MockSMTPClient)
				client.On("Mail", "noreply@example.com").Return(nil).Once()
				client.On("Rcpt", "alice@example.com").Return(errors.New("550 no such user")).Once()
				client.On("Close").Return(nil).Once()
				tr.On("Sender").Return("noreply@example.com")
				tr.On("Connect").Return(client, nil).Once()
			},
			wantMsg: "550 no such user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			tt.setup(transport)

			err := New(sl.Discard(), transport).HandleCreated(tt.body)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			transport.AssertExpectations(t)
		})
	}
}
