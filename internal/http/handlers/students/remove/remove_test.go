package remove

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/student-records/internal/lib/apperr"
	"github.com/magabrotheeeer/student-records/internal/lib/sl"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestRemoveHandler(t *testing.T) {
	tests := []struct {
		name       string
		mockErr    error
		wantStatus int
		wantBody   string
	}{
		{"deleted", nil, http.StatusOK, `{"success":true,"message":"Student deleted successfully"}`},
		{"missing", apperr.ErrStudentNotFound, http.StatusNotFound, `{"success":false,"message":"Student not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("Delete", mock.Anything, "p-1").Return(tt.mockErr).Once()

			req := httptest.NewRequest(http.MethodDelete, "/api/students/admin/p-1", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "p-1")
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(sl.Discard(), svc).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
