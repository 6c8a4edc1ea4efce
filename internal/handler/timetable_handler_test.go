package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type timetableGeneratorMock struct {
	school  dto.GenerateSchoolRequest
	class   dto.GenerateClassRequest
	teacher dto.GenerateTeacherRequest
	query   dto.TimetableQuery
	cleared string
	result  *dto.GenerationResult
	err     error
}

func (m *timetableGeneratorMock) GenerateWholeSchool(ctx context.Context, req dto.GenerateSchoolRequest) (*dto.GenerationResult, error) {
	m.school = req
	return m.result, m.err
}

func (m *timetableGeneratorMock) GenerateForClass(ctx context.Context, req dto.GenerateClassRequest) (*dto.GenerationResult, error) {
	m.class = req
	return m.result, m.err
}

func (m *timetableGeneratorMock) GenerateForTeacher(ctx context.Context, req dto.GenerateTeacherRequest) (*dto.GenerationResult, error) {
	m.teacher = req
	return m.result, m.err
}

func (m *timetableGeneratorMock) ClearAll(ctx context.Context, schoolID string) (*dto.ClearResult, error) {
	m.cleared = schoolID
	return &dto.ClearResult{Deleted: 4}, m.err
}

func (m *timetableGeneratorMock) ListTimetable(ctx context.Context, query dto.TimetableQuery) (*dto.TimetableView, error) {
	m.query = query
	return &dto.TimetableView{SchoolID: query.SchoolID, Entries: []models.TimetableEntry{{ID: "e1"}}, Count: 1}, m.err
}

func newTimetableRouter(mock *timetableGeneratorMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &TimetableHandler{service: mock}
	r := gin.New()
	r.POST("/schools/:schoolId/timetable/generate", h.GenerateSchool)
	r.POST("/schools/:schoolId/classes/:classId/timetable/generate", h.GenerateClass)
	r.POST("/schools/:schoolId/teachers/:teacherId/timetable/generate", h.GenerateTeacher)
	r.DELETE("/schools/:schoolId/timetable", h.Clear)
	r.GET("/schools/:schoolId/timetable", h.List)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTimetableHandlerGenerateSchool(t *testing.T) {
	mock := &timetableGeneratorMock{result: &dto.GenerationResult{Mode: dto.ModeSchool, Success: true, Placed: 3}}
	r := newTimetableRouter(mock)

	w := serve(r, http.MethodPost, "/schools/s1/timetable/generate", `{"scope":"BOTH","regenerate":true}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", mock.school.SchoolID)
	assert.Equal(t, dto.ScopeBoth, mock.school.Scope)
	assert.True(t, mock.school.Regenerate)

	var body struct {
		Data dto.GenerationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data.Placed)
}

func TestTimetableHandlerGenerateClassWithoutBody(t *testing.T) {
	mock := &timetableGeneratorMock{result: &dto.GenerationResult{Mode: dto.ModeClass, Success: true}}
	r := newTimetableRouter(mock)

	w := serve(r, http.MethodPost, "/schools/s1/classes/c1/timetable/generate", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", mock.class.ClassID)
	assert.False(t, mock.class.Incremental)
}

func TestTimetableHandlerNotFoundNotice(t *testing.T) {
	mock := &timetableGeneratorMock{result: &dto.GenerationResult{
		Mode:   dto.ModeTeacher,
		Notice: &dto.Notice{Code: dto.NoticeTeacherNotFound, Message: "teacher t9 not found in school"},
	}}
	r := newTimetableRouter(mock)

	w := serve(r, http.MethodPost, "/schools/s1/teachers/t9/timetable/generate", `{"incremental":true}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "t9", mock.teacher.TeacherID)
	assert.True(t, mock.teacher.Incremental)
	assert.Contains(t, w.Body.String(), "TEACHER_NOT_FOUND")
}

func TestTimetableHandlerMalformedBody(t *testing.T) {
	r := newTimetableRouter(&timetableGeneratorMock{})

	w := serve(r, http.MethodPost, "/schools/s1/timetable/generate", `{"scope":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerServiceError(t *testing.T) {
	mock := &timetableGeneratorMock{err: appErrors.Clone(appErrors.ErrLockTimeout, "")}
	r := newTimetableRouter(mock)

	w := serve(r, http.MethodPost, "/schools/s1/timetable/generate", `{"scope":"BOTH"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "GENERATION_IN_PROGRESS")
}

func TestTimetableHandlerClearAndList(t *testing.T) {
	mock := &timetableGeneratorMock{}
	r := newTimetableRouter(mock)

	w := serve(r, http.MethodDelete, "/schools/s1/timetable", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", mock.cleared)
	assert.Contains(t, w.Body.String(), `"deleted":4`)

	w = serve(r, http.MethodGet, "/schools/s1/timetable?classId=c1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", mock.query.ClassID)
	assert.Equal(t, "s1", mock.query.SchoolID)
	assert.Contains(t, w.Body.String(), `"count":1`)
}
