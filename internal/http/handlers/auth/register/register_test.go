package register

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/lib/apperr"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/services/auth"
)

// Мок сервиса регистрации
type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, in auth.RegisterInput) (*auth.Session, error) {
	args := m.Called(ctx, in)
	s, _ := args.Get(0).(*auth.Session)
	return s, args.Error(1)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	session := &auth.Session{
		Account: &models.Account{ID: "acc-1", Email: "john@example.com", Role: models.RoleStudent, IsActive: true},
		Token:   "signed-token",
	}

	tests := []struct {
		name        string
		body        string
		setupMock   func(m *ServiceMock)
		wantStatus  int
		wantMessage string
		wantErrors  []string
	}{
		{
			name: "success",
			body: `{"name":"John Doe","email":"john@example.com","password":"secret1","confirmPassword":"secret1","course":"Physics","enrollmentDate":"2024-09-01"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, mock.MatchedBy(func(in auth.RegisterInput) bool {
					return in.Email == "john@example.com" && in.ConfirmPassword == "secret1" &&
						in.EnrollmentDate != nil && in.EnrollmentDate.Year() == 2024
				})).Return(session, nil).Once()
			},
			wantStatus:  http.StatusCreated,
			wantMessage: "Registration successful",
		},
		{
			name:        "malformed json",
			body:        `{"name":`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid request body",
		},
		{
			name:        "invalid date",
			body:        `{"name":"John","enrollmentDate":"01/09/2024"}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Validation failed",
			wantErrors:  []string{"enrollmentDate must be a valid date"},
		},
		{
			name: "validation error",
			body: `{"name":"J"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, mock.Anything).
					Return(nil, apperr.NewValidation("name must be at least 2 characters long")).Once()
			},
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Validation failed",
			wantErrors:  []string{"name must be at least 2 characters long"},
		},
		{
			name: "duplicate email",
			body: `{"name":"John Doe","email":"john@example.com"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, mock.Anything).Return(nil, apperr.ErrDuplicateEmail).Once()
			},
			wantStatus:  http.StatusConflict,
			wantMessage: "Email already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}
			handler := New(sl.Discard(), svc)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-request-id"))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMessage, resp.Message)
			assert.Equal(t, tt.wantErrors, resp.Errors)
			if tt.wantStatus == http.StatusCreated {
				assert.True(t, resp.Success)
				data := resp.Data.(map[string]any)
				assert.Equal(t, "signed-token", data["token"])
				assert.Equal(t, "john@example.com", data["account"].(map[string]any)["email"])
				assert.NotContains(t, w.Body.String(), "password")
			}
			svc.AssertExpectations(t)
		})
	}
}
