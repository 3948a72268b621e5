package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classconnect-api/internal/middleware"
	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/internal/service"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
	"github.com/noah-isme/classconnect-api/pkg/response"
)

// SelectRoleRequest picks the role to sign in with.
type SelectRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

// SessionHandler exposes role selection for the current client.
type SessionHandler struct{}

// NewSessionHandler constructs a session handler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

func holder(c *gin.Context) (*service.SessionHolder, error) {
	h := middleware.HolderFrom(c)
	if h == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "session not restored")
	}
	return h, nil
}

// Get godoc
// @Summary Current session
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	sess, err := holder(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sess.Current())
}

// SelectRole godoc
// @Summary Select role
// @Description Signs the client in as the demo teacher or student. Nothing is verified.
// @Tags Session
// @Accept json
// @Produce json
// @Param payload body SelectRoleRequest true "Role"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /session [post]
func (h *SessionHandler) SelectRole(c *gin.Context) {
	sess, err := holder(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req SelectRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	state, err := sess.SelectRole(c.Request.Context(), req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, state)
}

// Logout godoc
// @Summary Sign out
// @Tags Session
// @Success 204
// @Router /session [delete]
func (h *SessionHandler) Logout(c *gin.Context) {
	sess, err := holder(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := sess.Clear(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Navigation godoc
// @Summary Navigation for the selected role
// @Tags Session
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /session/navigation [get]
func (h *SessionHandler) Navigation(c *gin.Context) {
	sess, err := holder(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sess.Navigation())
}
