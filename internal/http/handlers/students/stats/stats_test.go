package stats

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/student-records/internal/lib/sl"
	"github.com/magabrotheeeer/student-records/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Stats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*models.Stats)
	return s, args.Error(1)
}

func TestStatsHandler(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("Stats", mock.Anything).Return(&models.Stats{
		TotalStudents:  3,
		ActiveStudents: 3,
		TotalCourses:   2,
		CourseStats:    []models.CourseStat{{Course: "Mathematics", Count: 2}, {Course: "Physics", Count: 1}},
	}, nil).Once()

	w := httptest.NewRecorder()
	New(sl.Discard(), svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students/admin/stats", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"success": true,
		"message": "Operation successful",
		"data": {
			"totalStudents": 3,
			"activeStudents": 3,
			"inactiveStudents": 0,
			"totalCourses": 2,
			"courseStats": [{"course":"Mathematics","count":2},{"course":"Physics","count":1}]
		}
	}`, w.Body.String())

	svc.On("Stats", mock.Anything).Return(nil, errors.New("aggregate failed")).Once()
	w = httptest.NewRecorder()
	New(sl.Discard(), svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students/admin/stats", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
