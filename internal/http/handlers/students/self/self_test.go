package self

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/student-records/internal/http/middlewarectx"
	"github.com/magabrotheeeer/student-records/internal/lib/apperr"
	"github.com/magabrotheeeer/student-records/internal/lib/jwt"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/services/students"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) GetByAccount(ctx context.Context, accountID string) (*models.Profile, error) {
	args := m.Called(ctx, accountID)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func (m *ServiceMock) UpdateSelf(ctx context.Context, accountID string, in students.SelfUpdateInput) (*models.Profile, error) {
	args := m.Called(ctx, accountID, in)
	p, _ := args.Get(0).(*models.Profile)
	return p, args.Error(1)
}

func asStudent(r *http.Request) *http.Request {
	acc := &models.Account{ID: "acc-1", Role: models.RoleStudent, IsActive: true}
	return r.WithContext(middlewarectx.WithAccount(r.Context(), acc, &jwt.CustomClaims{}))
}

func TestSelfHandler_Get(t *testing.T) {
	tests := []struct {
		name       string
		mockResp   *models.Profile
		mockErr    error
		wantStatus int
		wantBody   string
	}{
		{"found", &models.Profile{ID: "p-1", AccountID: "acc-1", Course: "Physics"}, nil, http.StatusOK, `"accountId":"acc-1"`},
		{"no profile", nil, apperr.ErrStudentNotFound, http.StatusNotFound, `"message":"Student not found"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("GetByAccount", mock.Anything, "acc-1").Return(tt.mockResp, tt.mockErr).Once()

			w := httptest.NewRecorder()
			New(sl.Discard(), svc).Get(w, asStudent(httptest.NewRequest(http.MethodGet, "/api/students/profile", nil)))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestSelfHandler_Update(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("UpdateSelf", mock.Anything, "acc-1", mock.MatchedBy(func(in students.SelfUpdateInput) bool {
		return in.Course != nil && *in.Course == "Mathematics"
	})).Return(&models.Profile{ID: "p-1", Course: "Mathematics"}, nil).Once()

	// isActive не входит в список разрешённых полей и отбрасывается при декодировании.
	body := `{"course":"Mathematics","isActive":false}`
	w := httptest.NewRecorder()
	New(sl.Discard(), svc).Update(w, asStudent(httptest.NewRequest(http.MethodPut, "/api/students/profile", strings.NewReader(body))))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"message":"Student updated successfully"`)
	svc.AssertExpectations(t)
}
