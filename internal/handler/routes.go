package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classconnect-api/internal/middleware"
	"github.com/noah-isme/classconnect-api/internal/models"
)

// Handlers groups the API handlers mounted by RegisterRoutes.
type Handlers struct {
	Classes       *ClassHandler
	Assignments   *AssignmentHandler
	Announcements *AnnouncementHandler
	Session       *SessionHandler
	Notifications *NotificationHandler
	Pages         *PageHandler
}

// RegisterRoutes mounts the API on api. The group must already run the
// cookie session, client key and session restore middleware.
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	teacher := middleware.RequireRoles(models.RoleTeacher)
	student := middleware.RequireRoles(models.RoleStudent)
	signedIn := middleware.RequireSession()

	api.GET("/session", h.Session.Get)
	api.POST("/session", h.Session.SelectRole)
	api.DELETE("/session", h.Session.Logout)
	api.GET("/session/navigation", h.Session.Navigation)
	api.GET("/notifications", h.Notifications.Drain)

	classes := api.Group("/classes", signedIn)
	classes.GET("", h.Classes.List)
	classes.GET("/:id", h.Classes.Get)
	classes.GET("/:id/assignments", h.Assignments.ListByClass)
	classes.GET("/:id/announcements", h.Announcements.ListByClass)
	classes.POST("", teacher, h.Classes.Create)
	classes.POST("/batch", teacher, h.Classes.CreateBatch)
	classes.PUT("/:id", teacher, h.Classes.Update)
	classes.DELETE("/:id", teacher, h.Classes.Delete)
	classes.POST("/join", student, h.Pages.JoinClass)

	assignments := api.Group("/assignments", signedIn)
	assignments.GET("", h.Assignments.List)
	assignments.GET("/:id", h.Assignments.Get)
	assignments.POST("", teacher, h.Assignments.Create)
	assignments.POST("/batch", teacher, h.Assignments.CreateBatch)
	assignments.PUT("/:id", teacher, h.Assignments.Update)
	assignments.DELETE("/:id", teacher, h.Assignments.Delete)

	announcements := api.Group("/announcements", signedIn)
	announcements.GET("", h.Announcements.List)
	announcements.GET("/:id", h.Announcements.Get)
	announcements.POST("", teacher, h.Announcements.Create)
	announcements.POST("/batch", teacher, h.Announcements.CreateBatch)
	announcements.PUT("/:id", teacher, h.Announcements.Update)
	announcements.DELETE("/:id", teacher, h.Announcements.Delete)

	pages := api.Group("/pages", signedIn)
	pages.GET("/dashboard", h.Pages.Dashboard)
	pages.GET("/classes", h.Pages.Classes)
	pages.POST("/classes", teacher, h.Pages.CreateClass)
	pages.GET("/classes/:id", h.Pages.ClassDetail)
	pages.GET("/assignments", h.Pages.Assignments)
	pages.POST("/assignments", teacher, h.Pages.CreateAssignment)
	pages.GET("/assignments/:id", h.Pages.AssignmentDetail)
	pages.POST("/assignments/:id/submit", student, h.Pages.SubmitAssignment)
	pages.GET("/announcements", h.Pages.Announcements)
	pages.POST("/announcements", teacher, h.Pages.CreateAnnouncement)
	pages.GET("/gradebook", teacher, h.Pages.Gradebook)
	pages.GET("/gradebook/export", teacher, h.Pages.ExportGradebook)
	pages.GET("/grades", student, h.Pages.Grades)
}
