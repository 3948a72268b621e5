package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/pkg/response"
)

type assignmentService interface {
	List(ctx context.Context, opts models.ListOptions) ([]models.Assignment, *models.Pagination, error)
	GetByID(ctx context.Context, id int64) (*models.Assignment, error)
	GetByParent(ctx context.Context, classID int64) ([]models.Assignment, error)
	Create(ctx context.Context, fields models.Fields) (*models.Assignment, error)
	CreateBatch(ctx context.Context, batch []models.Fields) ([]models.Assignment, error)
	Update(ctx context.Context, id int64, fields models.Fields) (*models.Assignment, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// AssignmentHandler exposes assignment CRUD endpoints.
type AssignmentHandler struct {
	service assignmentService
}

// NewAssignmentHandler constructs a assignment handler.
func NewAssignmentHandler(svc assignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// List godoc
// @Summary List assignments
// @Tags Assignments
// @Produce json
// @Param classId query int false "Only assignments of this class"
// @Param page query int false "Page, starting at 1"
// @Param page_size query int false "Page size (max 100)"
// @Param fields query string false "Comma separated columns to return"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	opts, err := listOptions(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	assignments, pagination, err := h.service.List(c.Request.Context(), opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, paginationMeta(pagination))
}

// Get godoc
// @Summary Get assignment
// @Tags Assignments
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id} [get]
func (h *AssignmentHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	assignment, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment)
}

// Create godoc
// @Summary Create assignment
// @Description Accepts legacy, suffixed and snake case field names. Attachments may be comma separated text or an array.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body models.Fields true "Assignment fields"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	fields, err := bindFields(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assignment, err := h.service.Create(c.Request.Context(), fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// CreateBatch godoc
// @Summary Create several assignments
// @Description All records are stored or none are.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body []models.Fields true "Assignment records"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /assignments/batch [post]
func (h *AssignmentHandler) CreateBatch(c *gin.Context) {
	batch, err := bindBatch(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assignments, err := h.service.CreateBatch(c.Request.Context(), batch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignments)
}

// Update godoc
// @Summary Update assignment
// @Description Only supplied fields change.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body models.Fields true "Assignment fields"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id} [put]
func (h *AssignmentHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	fields, err := bindFields(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assignment, err := h.service.Update(c.Request.Context(), id, fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment)
}

// Delete godoc
// @Summary Delete assignment
// @Tags Assignments
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	deleted, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted})
}

// ListByClass godoc
// @Summary List assignments of a class
// @Tags Classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/assignments [get]
func (h *AssignmentHandler) ListByClass(c *gin.Context) {
	classID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	assignments, err := h.service.GetByParent(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, map[string]interface{}{"total": len(assignments)})
}
