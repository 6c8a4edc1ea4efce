package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/service"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

type timetableGenerator interface {
	GenerateWholeSchool(ctx context.Context, req dto.GenerateSchoolRequest) (*dto.GenerationResult, error)
	GenerateForClass(ctx context.Context, req dto.GenerateClassRequest) (*dto.GenerationResult, error)
	GenerateForTeacher(ctx context.Context, req dto.GenerateTeacherRequest) (*dto.GenerationResult, error)
	ClearAll(ctx context.Context, schoolID string) (*dto.ClearResult, error)
	ListTimetable(ctx context.Context, query dto.TimetableQuery) (*dto.TimetableView, error)
}

// TimetableHandler exposes timetable generation endpoints.
type TimetableHandler struct {
	service timetableGenerator
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableGeneratorService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// GenerateSchool godoc
// @Summary Generate the timetable of a whole school
// @Description Schedules every class, every teacher or both. Existing entries are kept unless regenerate is set.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param payload body dto.GenerateSchoolRequest true "Generation scope"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schools/{schoolId}/timetable/generate [post]
func (h *TimetableHandler) GenerateSchool(c *gin.Context) {
	var req dto.GenerateSchoolRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	req.SchoolID = c.Param("schoolId")
	result, err := h.service.GenerateWholeSchool(c.Request.Context(), req)
	h.respond(c, result, err)
}

// GenerateClass godoc
// @Summary Generate the timetable of one class
// @Tags Timetable
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param classId path string true "Class ID"
// @Param payload body dto.GenerateClassRequest false "Generation options"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schools/{schoolId}/classes/{classId}/timetable/generate [post]
func (h *TimetableHandler) GenerateClass(c *gin.Context) {
	var req dto.GenerateClassRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	req.SchoolID = c.Param("schoolId")
	req.ClassID = c.Param("classId")
	result, err := h.service.GenerateForClass(c.Request.Context(), req)
	h.respond(c, result, err)
}

// GenerateTeacher godoc
// @Summary Generate the timetable of one teacher or trainer
// @Tags Timetable
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param teacherId path string true "Teacher ID"
// @Param payload body dto.GenerateTeacherRequest false "Generation options"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schools/{schoolId}/teachers/{teacherId}/timetable/generate [post]
func (h *TimetableHandler) GenerateTeacher(c *gin.Context) {
	var req dto.GenerateTeacherRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generate payload"))
		return
	}
	req.SchoolID = c.Param("schoolId")
	req.TeacherID = c.Param("teacherId")
	result, err := h.service.GenerateForTeacher(c.Request.Context(), req)
	h.respond(c, result, err)
}

// Clear godoc
// @Summary Delete every timetable entry of a school
// @Tags Timetable
// @Produce json
// @Param schoolId path string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/timetable [delete]
func (h *TimetableHandler) Clear(c *gin.Context) {
	result, err := h.service.ClearAll(c.Request.Context(), c.Param("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// List godoc
// @Summary List stored timetable entries
// @Tags Timetable
// @Produce json
// @Param schoolId path string true "School ID"
// @Param classId query string false "Class ID"
// @Param teacherId query string false "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /schools/{schoolId}/timetable [get]
func (h *TimetableHandler) List(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	query.SchoolID = c.Param("schoolId")
	view, err := h.service.ListTimetable(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view, map[string]interface{}{"count": view.Count})
}

func (h *TimetableHandler) respond(c *gin.Context, result *dto.GenerationResult, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Notice.NotFound() {
		status = http.StatusNotFound
	}
	response.JSON(c, status, result)
}

// bindOptionalJSON accepts an empty body so flag-less requests use defaults.
func bindOptionalJSON(c *gin.Context, dest interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dest); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
