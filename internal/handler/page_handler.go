package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classconnect-api/internal/middleware"
	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/internal/service"
	"github.com/noah-isme/classconnect-api/internal/view"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
	"github.com/noah-isme/classconnect-api/pkg/response"
)

type gradebookExporter interface {
	Gradebook(class models.Class, assignments []models.Assignment, format service.ExportFormat) (*service.ExportFile, error)
}

// JoinClassRequest carries the code a student joins with.
type JoinClassRequest struct {
	ClassCode string `json:"classCode" binding:"required"`
}

// SubmitAssignmentRequest carries a student's submission text.
type SubmitAssignmentRequest struct {
	Content string `json:"content"`
}

// PageHandler renders page controllers for the signed-in client. Every
// request mounts a fresh page bound to the request context and unmounts it
// when the response is written. Failed loads still return the page so the
// client can show its error state.
type PageHandler struct {
	base     view.Deps
	exporter gradebookExporter
}

// NewPageHandler constructs a page handler. base supplies everything but the
// session, which is taken from each request.
func NewPageHandler(base view.Deps, exporter gradebookExporter) *PageHandler {
	return &PageHandler{base: base, exporter: exporter}
}

func (h *PageHandler) deps(c *gin.Context) view.Deps {
	deps := h.base
	if sess := middleware.HolderFrom(c); sess != nil {
		deps.Session = sess
	}
	return deps
}

func (h *PageHandler) ctx(c *gin.Context) context.Context {
	return c.Request.Context()
}

func render(c *gin.Context, status int, err error, snapshot interface{}) {
	if err != nil {
		response.ErrorWithData(c, err, snapshot)
		return
	}
	response.JSON(c, status, snapshot)
}

// Dashboard godoc
// @Summary Dashboard page
// @Description Teacher and student variants are chosen by the session role.
// @Tags Pages
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pages/dashboard [get]
func (h *PageHandler) Dashboard(c *gin.Context) {
	page := view.NewDashboardPage(h.ctx(c), h.deps(c))
	defer page.Unmount()
	err := page.Load(h.ctx(c))
	render(c, http.StatusOK, err, page.Snapshot())
}

// Classes godoc
// @Summary Classes page
// @Tags Pages
// @Produce json
// @Param search query string false "Case-insensitive match on name and description"
// @Success 200 {object} response.Envelope
// @Router /pages/classes [get]
func (h *PageHandler) Classes(c *gin.Context) {
	page := view.NewClassesPage(h.ctx(c), h.deps(c))
	defer page.Unmount()
	err := page.Load(h.ctx(c))
	page.Search(c.Query("search"))
	render(c, http.StatusOK, err, page.Snapshot())
}

// CreateClass godoc
// @Summary Create class from the classes page
// @Description The new class is owned by the signed-in teacher unless teacherId is supplied.
// @Tags Pages
// @Accept json
// @Produce json
// @Param payload body models.Fields true "Class fields"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /pages/classes [post]
func (h *PageHandler) CreateClass(c *gin.Context) {
	fields, err := bindFields(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page := view.NewClassesPage(h.ctx(c), h.deps(c))
	defer page.Unmount()
	if err := page.Load(h.ctx(c)); err != nil {
		render(c, http.StatusOK, err, page.Snapshot())
		return
	}
	page.OpenCreate()
	_, err = page.Create(h.ctx(c), fields)
	render(c, http.StatusCreated, err, page.Snapshot())
}

// JoinClass godoc
// @Summary Join a class with its code
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body JoinClassRequest true "Class code"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/join [post]
func (h *PageHandler) JoinClass(c *gin.Context) {
	var req JoinClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	page := view.NewClassesPage(h.ctx(c), h.deps(c))
	defer page.Unmount()
	class, err := page.Join(h.ctx(c), req.ClassCode)
	if err != nil {
		render(c, http.StatusOK, err, page.Snapshot())
		return
	}
	response.JSON(c, http.StatusOK, page.Snapshot(), map[string]interface{}{"joined": class})
}

// ClassDetail godoc
// @Summary Class detail page
// @Tags Pages
// @Produce json
// @Param id path int true "Class ID"
// @Param tab query string false "overview, assignments, students or announcements"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pages/classes/{id} [get]
func (h *PageHandler) ClassDetail(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	page := view.NewClassDetailPage(h.ctx(c), h.deps(c), id)
	defer page.Unmount()
	if err := page.SetTab(c.Query("tab")); err != nil {
		response.Error(c, err)
		return
	}
	err = page.Load(h.ctx(c))
	render(c, http.StatusOK, err, page.Snapshot())
}

// Assignments godoc
// @Summary Assignments page
// @Tags Pages
// @Produce json
// @Param search query string false "Case-insensitive match on title and description"
// @Success 200 {object} response.Envelope
// @Router /pages/assignments [get]
func (h *PageHandler) Assignments(c *gin.Context) {
	page := view.NewAssignmentsPage(h.ctx(c), h.deps(c))
	defer page.Unmount()
	err := page.Load(h.ctx(c))
	page.Search(c.Query("search"))
	render(c, http.StatusOK, err, page.Snapshot())
}

// CreateAssignment godoc
// @Summary Create assignment from the assignments page
// @Tags Pages
// @Accept json
// @Produce json
// @Param payload body models.Fields true "Assignment fields"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /pages/assignments [post]
func (h *PageHandler) CreateAssignment(c *gin.Context) {
	fields, err := bindFields(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page := view.NewAssignmentsPage(h.ctx(c), h.deps(c))
	defer page.Unmount()
	if err := page.Load(h.ctx(c)); err != nil {
		render(c, http.StatusOK, err, page.Snapshot())
		return
	}
	page.OpenCreate()
	_, err = page.Create(h.ctx(c), fields)
	render(c, http.StatusCreated, err, page.Snapshot())
}

// AssignmentDetail godoc
// @Summary Assignment detail page
// @Tags Pages
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /pages/assignments/{id} [get]
func (h *PageHandler) AssignmentDetail(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	page := view.NewAssignmentDetailPage(h.ctx(c), h.deps(c), id)
	defer page.Unmount()
	err = page.Load(h.ctx(c))
	render(c, http.StatusOK, err, page.Snapshot())
}

// SubmitAssignment godoc
// @Summary Submit work for an assignment
// @Description Blank submissions and overdue assignments are rejected. Submissions are not stored.
// @Tags Pages
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body SubmitAssignmentRequest true "Submission"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /pages/assignments/{id}/submit [post]
func (h *PageHandler) SubmitAssignment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req SubmitAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	page := view.NewAssignmentDetailPage(h.ctx(c), h.deps(c), id)
	defer page.Unmount()
	if err := page.Load(h.ctx(c)); err != nil {
		render(c, http.StatusOK, err, page.Snapshot())
		return
	}
	err = page.Submit(h.ctx(c), req.Content)
	render(c, http.StatusOK, err, page.Snapshot())
}

// Announcements godoc
// @Summary Announcements page
// @Tags Pages
// @Produce json
// @Param classId query int false "Only announcements of this class; 0 shows all"
// @Success 200 {object} response.Envelope
// @Router /pages/announcements [get]
func (h *PageHandler) Announcements(c *gin.Context) {
	classID, _, err := queryID(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	page := view.NewAnnouncementsPage(h.ctx(c), h.deps(c))
	defer page.Unmount()
	err = page.Load(h.ctx(c))
	page.FilterClass(classID)
	render(c, http.StatusOK, err, page.Snapshot())
}

// CreateAnnouncement godoc
// @Summary Post announcement from the announcements page
// @Description Title, content and class are required here.
// @Tags Pages
// @Accept json
// @Produce json
// @Param payload body models.Fields true "Announcement fields"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /pages/announcements [post]
func (h *PageHandler) CreateAnnouncement(c *gin.Context) {
	fields, err := bindFields(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page := view.NewAnnouncementsPage(h.ctx(c), h.deps(c))
	defer page.Unmount()
	if err := page.Load(h.ctx(c)); err != nil {
		render(c, http.StatusOK, err, page.Snapshot())
		return
	}
	page.OpenCreate()
	_, err = page.Create(h.ctx(c), fields)
	render(c, http.StatusCreated, err, page.Snapshot())
}

// Gradebook godoc
// @Summary Gradebook page
// @Tags Pages
// @Produce json
// @Param classId query int false "Selected class; defaults to the first class, 0 shows all"
// @Success 200 {object} response.Envelope
// @Router /pages/gradebook [get]
func (h *PageHandler) Gradebook(c *gin.Context) {
	h.gradebook(c, view.NewGradebookPage)
}

// Grades godoc
// @Summary Grades page
// @Tags Pages
// @Produce json
// @Param classId query int false "Selected class; defaults to the first class, 0 shows all"
// @Success 200 {object} response.Envelope
// @Router /pages/grades [get]
func (h *PageHandler) Grades(c *gin.Context) {
	h.gradebook(c, view.NewGradesPage)
}

func (h *PageHandler) gradebook(c *gin.Context, build func(context.Context, view.Deps) *view.GradebookPage) {
	page, err := h.loadGradebook(c, build)
	if page == nil {
		response.Error(c, err)
		return
	}
	defer page.Unmount()
	render(c, http.StatusOK, err, page.Snapshot())
}

// loadGradebook returns a nil page only when the query is malformed.
func (h *PageHandler) loadGradebook(c *gin.Context, build func(context.Context, view.Deps) *view.GradebookPage) (*view.GradebookPage, error) {
	classID, selected, err := queryID(c, "classId")
	if err != nil {
		return nil, err
	}
	page := build(h.ctx(c), h.deps(c))
	err = page.Load(h.ctx(c))
	if selected {
		page.SelectClass(classID)
	}
	return page, err
}

// ExportGradebook godoc
// @Summary Export gradebook
// @Description Renders the selected class's assignments as CSV or PDF.
// @Tags Pages
// @Produce text/csv
// @Produce application/pdf
// @Param classId query int false "Selected class; defaults to the first class, 0 exports all"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /pages/gradebook/export [get]
func (h *PageHandler) ExportGradebook(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	page, err := h.loadGradebook(c, view.NewGradebookPage)
	if page == nil {
		response.Error(c, err)
		return
	}
	defer page.Unmount()
	if err != nil {
		render(c, http.StatusOK, err, page.Snapshot())
		return
	}

	class := models.Class{Name: "All Classes"}
	if id := page.SelectedClass(); id != 0 {
		found, ok := page.Class(id)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "Class not found."))
			return
		}
		class = found
	}
	file, err := h.exporter.Gradebook(class, page.Assignments(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}

