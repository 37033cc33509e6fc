package middlewarectx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/student-records/internal/http/middlewarectx"
	"github.com/magabrotheeeer/student-records/internal/http/response"
	"github.com/magabrotheeeer/student-records/internal/lib/jwt"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/storage"
)

type AccountGetterMock struct {
	mock.Mock
}

func (m *AccountGetterMock) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	acc, _ := args.Get(0).(*models.Account)
	return acc, args.Error(1)
}

type RevocationMock struct {
	mock.Mock
}

func (m *RevocationMock) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

type FailureMock struct {
	reasons []string
}

func (m *FailureMock) AuthFailure(reason string) { m.reasons = append(m.reasons, reason) }

const secret = "middleware-secret"

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAuthenticate(t *testing.T) {
	maker := jwt.NewJWTMaker(secret, time.Hour, "test")
	token, err := maker.GenerateToken("acc-1", "student")
	require.NoError(t, err)
	expired, err := jwt.NewJWTMaker(secret, -time.Minute, "test").GenerateToken("acc-1", "student")
	require.NoError(t, err)
	foreign, err := jwt.NewJWTMaker("other-secret", time.Hour, "test").GenerateToken("acc-1", "student")
	require.NoError(t, err)

	active := &models.Account{ID: "acc-1", Email: "john@example.com", PasswordHash: "hash", Role: models.RoleStudent, IsActive: true}
	inactive := &models.Account{ID: "acc-1", Role: models.RoleStudent, IsActive: false}

	tests := []struct {
		name        string
		header      string
		setupMock   func(*AccountGetterMock, *RevocationMock)
		wantStatus  int
		wantMessage string
		wantReason  string
		wantCalled  bool
	}{
		{
			name:        "missing header",
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Unauthorized access",
			wantReason:  "missing_token",
		},
		{
			name:        "wrong scheme",
			header:      "Basic " + token,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Unauthorized access",
			wantReason:  "missing_token",
		},
		{
			name:        "expired token",
			header:      "Bearer " + expired,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Token expired",
			wantReason:  "token_expired",
		},
		{
			name:        "foreign signature",
			header:      "Bearer " + foreign,
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid token",
			wantReason:  "token_invalid",
		},
		{
			name:   "account deleted",
			header: "Bearer " + token,
			setupMock: func(a *AccountGetterMock, _ *RevocationMock) {
				a.On("GetAccount", mock.Anything, "acc-1").Return(nil, storage.ErrNotFound)
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Unauthorized access",
			wantReason:  "account_not_found",
		},
		{
			name:   "account inactive",
			header: "Bearer " + token,
			setupMock: func(a *AccountGetterMock, _ *RevocationMock) {
				a.On("GetAccount", mock.Anything, "acc-1").Return(inactive, nil)
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Unauthorized access",
			wantReason:  "account_inactive",
		},
		{
			name:   "store failure",
			header: "Bearer " + token,
			setupMock: func(a *AccountGetterMock, _ *RevocationMock) {
				a.On("GetAccount", mock.Anything, "acc-1").Return(nil, errors.New("connection reset"))
			},
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Internal server error",
		},
		{
			name:   "revoked token",
			header: "Bearer " + token,
			setupMock: func(a *AccountGetterMock, r *RevocationMock) {
				a.On("GetAccount", mock.Anything, "acc-1").Return(active, nil)
				r.On("IsRevoked", mock.Anything, mock.Anything).Return(true, nil)
			},
			wantStatus:  http.StatusUnauthorized,
			wantMessage: "Invalid token",
			wantReason:  "token_revoked",
		},
		{
			name:   "success",
			header: "Bearer " + token,
			setupMock: func(a *AccountGetterMock, r *RevocationMock) {
				a.On("GetAccount", mock.Anything, "acc-1").Return(active, nil)
				r.On("IsRevoked", mock.Anything, mock.Anything).Return(false, nil)
			},
			wantStatus: http.StatusOK,
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := new(AccountGetterMock)
			revocation := new(RevocationMock)
			failures := &FailureMock{}
			if tt.setupMock != nil {
				tt.setupMock(accounts, revocation)
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				acc, ok := middlewarectx.AccountFrom(r.Context())
				require.True(t, ok)
				assert.Equal(t, "acc-1", acc.ID)
				assert.Empty(t, acc.PasswordHash)
				claims, ok := middlewarectx.ClaimsFrom(r.Context())
				require.True(t, ok)
				assert.NotEmpty(t, claims.ID)
				w.WriteHeader(http.StatusOK)
			})

			auth := middlewarectx.NewAuthenticator(sl.Discard(), maker, accounts,
				middlewarectx.WithRevocation(revocation),
				middlewarectx.WithFailureRecorder(failures))

			req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			auth.Authenticate(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantMessage != "" {
				resp := decode(t, w)
				assert.False(t, resp.Success)
				assert.Equal(t, tt.wantMessage, resp.Message)
			}
			if tt.wantReason != "" {
				assert.Equal(t, []string{tt.wantReason}, failures.reasons)
			} else {
				assert.Empty(t, failures.reasons)
			}
			accounts.AssertExpectations(t)
			revocation.AssertExpectations(t)
		})
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name       string
		account    *models.Account
		roles      []models.Role
		wantStatus int
	}{
		{"admin allowed", &models.Account{Role: models.RoleAdmin}, []models.Role{models.RoleAdmin}, http.StatusOK},
		{"student forbidden", &models.Account{Role: models.RoleStudent}, []models.Role{models.RoleAdmin}, http.StatusForbidden},
		{"any of several", &models.Account{Role: models.RoleStudent}, []models.Role{models.RoleAdmin, models.RoleStudent}, http.StatusOK},
		{"not authenticated", nil, []models.Role{models.RoleAdmin}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(http.MethodGet, "/api/students", nil)
			if tt.account != nil {
				req = req.WithContext(middlewarectx.WithAccount(req.Context(), tt.account, &jwt.CustomClaims{}))
			}
			w := httptest.NewRecorder()

			middlewarectx.Authorize(tt.roles...)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, "Access forbidden", decode(t, w).Message)
			}
		})
	}
}
