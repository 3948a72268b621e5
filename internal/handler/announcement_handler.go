package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/pkg/response"
)

type announcementService interface {
	List(ctx context.Context, opts models.ListOptions) ([]models.Announcement, *models.Pagination, error)
	GetByID(ctx context.Context, id int64) (*models.Announcement, error)
	GetByParent(ctx context.Context, classID int64) ([]models.Announcement, error)
	Create(ctx context.Context, fields models.Fields) (*models.Announcement, error)
	CreateBatch(ctx context.Context, batch []models.Fields) ([]models.Announcement, error)
	Update(ctx context.Context, id int64, fields models.Fields) (*models.Announcement, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// AnnouncementHandler exposes announcement CRUD endpoints.
type AnnouncementHandler struct {
	service announcementService
}

// NewAnnouncementHandler constructs a announcement handler.
func NewAnnouncementHandler(svc announcementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

// List godoc
// @Summary List announcements
// @Tags Announcements
// @Produce json
// @Param classId query int false "Only announcements of this class"
// @Param page query int false "Page, starting at 1"
// @Param page_size query int false "Page size (max 100)"
// @Param fields query string false "Comma separated columns to return"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	opts, err := listOptions(c, "classId")
	if err != nil {
		response.Error(c, err)
		return
	}
	announcements, pagination, err := h.service.List(c.Request.Context(), opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcements, paginationMeta(pagination))
}

// Get godoc
// @Summary Get announcement
// @Tags Announcements
// @Produce json
// @Param id path int true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	announcement, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement)
}

// Create godoc
// @Summary Create announcement
// @Description Accepts legacy, suffixed and snake case field names. Announcements without a class are general.
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body models.Fields true "Announcement fields"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	fields, err := bindFields(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	announcement, err := h.service.Create(c.Request.Context(), fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// CreateBatch godoc
// @Summary Create several announcements
// @Description All records are stored or none are.
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body []models.Fields true "Announcement records"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /announcements/batch [post]
func (h *AnnouncementHandler) CreateBatch(c *gin.Context) {
	batch, err := bindBatch(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	announcements, err := h.service.CreateBatch(c.Request.Context(), batch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcements)
}

// Update godoc
// @Summary Update announcement
// @Description Only supplied fields change.
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path int true "Announcement ID"
// @Param payload body models.Fields true "Announcement fields"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
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
	announcement, err := h.service.Update(c.Request.Context(), id, fields)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement)
}

// Delete godoc
// @Summary Delete announcement
// @Tags Announcements
// @Produce json
// @Param id path int true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
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
// @Summary List announcements of a class
// @Tags Classes
// @Produce json
// @Param id path int true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/announcements [get]
func (h *AnnouncementHandler) ListByClass(c *gin.Context) {
	classID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	announcements, err := h.service.GetByParent(c.Request.Context(), classID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcements, map[string]interface{}{"total": len(announcements)})
}
