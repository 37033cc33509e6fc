package logout

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/student-records/internal/http/middlewarectx"
	"github.com/magabrotheeeer/student-records/internal/lib/jwt"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Logout(ctx context.Context, claims *jwt.CustomClaims) error {
	return m.Called(ctx, claims).Error(0)
}

func TestLogoutHandler(t *testing.T) {
	claims := &jwt.CustomClaims{Role: "student"}
	claims.ID = "jti-1"

	tests := []struct {
		name       string
		mockErr    error
		wantStatus int
		wantBody   string
	}{
		{"success", nil, http.StatusOK, `{"success":true,"message":"Logout successful"}`},
		{"revocation store down", errors.New("redis down"), http.StatusInternalServerError, `{"success":false,"message":"Internal server error"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("Logout", mock.Anything, claims).Return(tt.mockErr).Once()

			req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
			req = req.WithContext(middlewarectx.WithAccount(req.Context(), &models.Account{ID: "acc-1"}, claims))
			w := httptest.NewRecorder()
			New(sl.Discard(), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
