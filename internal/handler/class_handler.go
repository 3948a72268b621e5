package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/pkg/response"
)

type classService interface {
	List(ctx context.Context, opts models.ListOptions) ([]models.Class, *models.Pagination, error)
	GetByID(ctx context.Context, id int64) (*models.Class, error)
	GetByParent(ctx context.Context, teacherID int64) ([]models.Class, error)
	Create(ctx context.Context, fields models.Fields) (*models.Class, error)
	CreateBatch(ctx context.Context, batch []models.Fields) ([]models.Class, error)
	Update(ctx context.Context, id int64, fields models.Fields) (*models.Class, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// ClassHandler exposes class CRUD endpoints.
type ClassHandler struct {
	service classService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(svc classService) *ClassHandler {
	return &ClassHandler{service: svc}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Param teacherId query int false "Only classes owned by this teacher"
// @Param page query int false "Page, starting at 1"
// @Param page_size query int false "Page size (max 100)"
// @Param fields query string false "Comma separated columns to return"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	opts, err := listOptions(c, "teacherId")
	if err != nil {
		response.Error(c, err)
		return
	}
	classes, pagination, err := h.service.List(c.Request.Context(), opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, paginationMeta(pagination))
}

// Get godoc
// @Summary Get class
// @Tags Classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	class, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class)
}

// Create godoc
// @Summary Create class
// @Description Accepts legacy, suffixed and snake case field names. A join code is generated when none is supplied.
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body models.Fields true "Class fields"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	fields, err := bindFields(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	class, err := h.service.Create(c.Request.Context(), fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// CreateBatch godoc
// @Summary Create several classes
// @Description All records are stored or none are.
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body []models.Fields true "Class records"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /classes/batch [post]
func (h *ClassHandler) CreateBatch(c *gin.Context) {
	batch, err := bindBatch(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	classes, err := h.service.CreateBatch(c.Request.Context(), batch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, classes)
}

// Update godoc
// @Summary Update class
// @Description Only supplied fields change.
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path int true "Class ID"
// @Param payload body models.Fields true "Class fields"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
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
	class, err := h.service.Update(c.Request.Context(), id, fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class)
}

// Delete godoc
// @Summary Delete class
// @Tags Classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
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
