package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dept-portal-api/internal/middleware"
	"github.com/noah-isme/dept-portal-api/internal/models"
	"github.com/noah-isme/dept-portal-api/internal/service"
	appErrors "github.com/noah-isme/dept-portal-api/pkg/errors"
)

type reportServiceMock struct {
	distribution *models.MarksDistribution
	flags        *models.PerformanceFlags
	performance  *models.StudentPerformance
	hit          bool
	err          error
	lastQuery    models.MarksQuery
	lastStudent  string
	lastActor    service.Actor
}

func (m *reportServiceMock) Distribution(_ context.Context, query models.MarksQuery) (*models.MarksDistribution, bool, error) {
	m.lastQuery = query
	return m.distribution, m.hit, m.err
}

func (m *reportServiceMock) PerformanceFlags(_ context.Context, query models.MarksQuery) (*models.PerformanceFlags, bool, error) {
	m.lastQuery = query
	return m.flags, m.hit, m.err
}

func (m *reportServiceMock) StudentPerformance(_ context.Context, studentID string, actor service.Actor) (*models.StudentPerformance, bool, error) {
	m.lastStudent = studentID
	m.lastActor = actor
	return m.performance, m.hit, m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestReportHandlerDistributionBindsQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &reportServiceMock{distribution: &models.MarksDistribution{Total: 4}, hit: true}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/reports/distribution?class_id=c-1&subject_id=s-1&assessment=Unit+Test+1", nil)
	handler.Distribution(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.MarksQuery{ClassID: "c-1", SubjectID: "s-1", Assessment: "Unit Test 1"}, mockSvc.lastQuery)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, float64(4), envelope.Data["total"])
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestReportHandlerPerformanceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&reportServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "subject does not belong to class")})

	c, w := newGinContext(http.MethodGet, "/reports/performance?class_id=c-1&subject_id=s-9", nil)
	handler.Performance(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "subject does not belong to class", envelope.Error.Message)
}

func TestReportHandlerStudentPerformance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	best := "Maths"
	mockSvc := &reportServiceMock{performance: &models.StudentPerformance{StudentID: "stu-1", BestSubject: &best}}
	handler := NewReportHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/students/stu-1/performance", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent, ClassID: "c-1"})
	handler.Student(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stu-1", mockSvc.lastStudent)
	assert.Equal(t, "c-1", mockSvc.lastActor.ClassID)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "Maths", envelope.Data["best_subject"])
	assert.Nil(t, envelope.Data["subject_for_improvement"])
}
