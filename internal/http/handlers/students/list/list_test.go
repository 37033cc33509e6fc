package list

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/models"
	"github.com/magabrotheeeer/student-records/internal/services/students"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) List(ctx context.Context, p students.ListParams) (*models.ProfilePage, error) {
	args := m.Called(ctx, p)
	page, _ := args.Get(0).(*models.ProfilePage)
	return page, args.Error(1)
}

func TestListHandler(t *testing.T) {
	page := &models.ProfilePage{
		Students:    []*models.Profile{{ID: "p-1", Name: "Jane Smith"}},
		TotalPages:  2,
		CurrentPage: 2,
		Total:       15,
	}

	tests := []struct {
		name       string
		query      string
		wantParams *students.ListParams
		wantStatus int
		wantBody   string
	}{
		{
			name:       "query parameters passed through",
			query:      "?page=2&limit=10&search=Physics",
			wantParams: &students.ListParams{Page: 2, Limit: 10, Search: "Physics"},
			wantStatus: http.StatusOK,
			wantBody:   `"totalPages":2`,
		},
		{
			name:       "defaults left to service",
			query:      "",
			wantParams: &students.ListParams{},
			wantStatus: http.StatusOK,
			wantBody:   `"students":[`,
		},
		{
			name:       "bad page",
			query:      "?page=abc&limit=0",
			wantStatus: http.StatusBadRequest,
			wantBody:   `"errors":["page must be a positive integer","limit must be a positive integer"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.wantParams != nil {
				svc.On("List", mock.Anything, *tt.wantParams).Return(page, nil).Once()
			}

			w := httptest.NewRecorder()
			New(sl.Discard(), svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students/admin/all"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
