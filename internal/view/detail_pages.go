package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/internal/service"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
)

// Class detail tabs.
const (
	TabOverview      = "overview"
	TabAssignments   = "assignments"
	TabStudents      = "students"
	TabAnnouncements = "announcements"
)

var classTabs = []string{TabOverview, TabAssignments, TabStudents, TabAnnouncements}

// ClassOverview is the overview tab: the latest work and class stats.
type ClassOverview struct {
	RecentAssignments []AssignmentRow `json:"recent_assignments"`
	AssignmentCount   int             `json:"assignment_count"`
	StudentCount      int             `json:"student_count"`
	ClassCode         string          `json:"class_code"`
}

// ClassDetailView is the rendered class detail page.
type ClassDetailView struct {
	Status
	ClassID       int64                 `json:"class_id"`
	Tab           string                `json:"tab"`
	Tabs          []string              `json:"tabs"`
	Class         *models.Class         `json:"class,omitempty"`
	Overview      *ClassOverview        `json:"overview,omitempty"`
	Assignments   []AssignmentRow       `json:"assignments,omitempty"`
	Students      []models.User         `json:"students,omitempty"`
	Announcements []models.Announcement `json:"announcements,omitempty"`
}

// ClassDetailPage shows one class and its children. Changing the class id
// starts a new load; a load for the previous id is discarded.
type ClassDetailPage struct {
	*Lifecycle
	classID       int64
	tab           string
	class         *models.Class
	assignments   []models.Assignment
	announcements []models.Announcement
}

// NewClassDetailPage binds a class detail page to parent.
func NewClassDetailPage(parent context.Context, deps Deps, classID int64) *ClassDetailPage {
	p := &ClassDetailPage{
		Lifecycle: newLifecycle(parent, "class_detail", "Failed to load class details. Please try again.", deps),
		classID:   classID,
		tab:       TabOverview,
	}
	p.notFound = "Class not found."
	p.reload = p.Load
	return p
}

// Load fetches the class with its assignments and announcements concurrently.
func (p *ClassDetailPage) Load(ctx context.Context) error {
	p.mu.Lock()
	id := p.classID
	p.mu.Unlock()

	ctx, done, gen := p.begin(ctx)
	defer done()
	var (
		class         *models.Class
		assignments   []models.Assignment
		announcements []models.Announcement
	)
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) {
			class, err = p.deps.Classes.GetByID(ctx, id)
			return err
		},
		func(ctx context.Context) (err error) {
			assignments, err = p.deps.Assignments.GetByParent(ctx, id)
			return err
		},
		func(ctx context.Context) (err error) {
			announcements, err = p.deps.Announcements.GetByParent(ctx, id)
			return err
		},
	)
	return p.settle(gen, err, func() {
		p.class = class
		p.assignments = assignments
		p.announcements = announcements
	})
}

// SetClass switches the page to another class and reloads.
func (p *ClassDetailPage) SetClass(ctx context.Context, classID int64) error {
	p.mu.Lock()
	p.classID = classID
	p.mu.Unlock()
	return p.Load(ctx)
}

// SetTab selects a tab. Unknown tabs are rejected.
func (p *ClassDetailPage) SetTab(tab string) error {
	tab = strings.ToLower(strings.TrimSpace(tab))
	if tab == "" {
		tab = TabOverview
	}
	for _, known := range classTabs {
		if tab == known {
			p.mu.Lock()
			p.tab = tab
			p.mu.Unlock()
			return nil
		}
	}
	return appErrors.WithDetails(appErrors.ErrValidation, "unknown tab", []string{fmt.Sprintf("tab must be one of %s", strings.Join(classTabs, ", "))})
}

// Snapshot renders the selected tab.
func (p *ClassDetailPage) Snapshot() ClassDetailView {
	now := p.deps.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	view := ClassDetailView{Status: p.status(), ClassID: p.classID, Tab: p.tab, Tabs: classTabs}
	if !p.readyLocked() || p.class == nil {
		return view
	}
	class := *p.class
	view.Class = &class
	classes := []models.Class{class}
	switch p.tab {
	case TabOverview:
		recent := p.assignments
		if len(recent) > 3 {
			recent = recent[:3]
		}
		view.Overview = &ClassOverview{
			RecentAssignments: assignmentRows(recent, classes, now, nil),
			AssignmentCount:   len(p.assignments),
			ClassCode:         class.ClassCode,
		}
	case TabAssignments:
		view.Assignments = assignmentRows(p.assignments, classes, now, nil)
	case TabStudents:
		view.Students = []models.User{}
	case TabAnnouncements:
		view.Announcements = append([]models.Announcement{}, p.announcements...)
	}
	return view
}

// AssignmentDetailView is the rendered assignment detail page.
type AssignmentDetailView struct {
	Status
	Assignment  *AssignmentRow `json:"assignment,omitempty"`
	Class       *models.Class  `json:"class,omitempty"`
	Submitted   bool           `json:"submitted"`
	CanSubmit   bool           `json:"can_submit"`
	StatusLabel string         `json:"status_label,omitempty"`
}

// AssignmentDetailPage shows one assignment and lets a student submit work.
// Submissions are acknowledged but not stored.
type AssignmentDetailPage struct {
	*Lifecycle
	assignmentID int64
	assignment   *models.Assignment
	class        *models.Class
	submitted    bool
}

// NewAssignmentDetailPage binds an assignment detail page to parent.
func NewAssignmentDetailPage(parent context.Context, deps Deps, assignmentID int64) *AssignmentDetailPage {
	p := &AssignmentDetailPage{
		Lifecycle:    newLifecycle(parent, "assignment_detail", "Failed to load assignment details. Please try again.", deps),
		assignmentID: assignmentID,
	}
	p.notFound = "Assignment not found."
	p.reload = p.Load
	return p
}

// Load fetches the assignment, then its class. A class that no longer
// resolves leaves the page Ready with the unknown-class label.
func (p *AssignmentDetailPage) Load(ctx context.Context) error {
	p.mu.Lock()
	id := p.assignmentID
	p.mu.Unlock()

	ctx, done, gen := p.begin(ctx)
	defer done()
	var class *models.Class
	assignment, err := p.deps.Assignments.GetByID(ctx, id)
	if err == nil && assignment.ClassID != 0 {
		class, err = p.deps.Classes.GetByID(ctx, assignment.ClassID)
		if appErrors.IsKind(err, appErrors.ErrNotFound) {
			class, err = nil, nil
		}
	}
	return p.settle(gen, err, func() {
		p.assignment = assignment
		p.class = class
		p.submitted = false
	})
}

// SetAssignment switches the page to another assignment and reloads.
func (p *AssignmentDetailPage) SetAssignment(ctx context.Context, assignmentID int64) error {
	p.mu.Lock()
	p.assignmentID = assignmentID
	p.mu.Unlock()
	return p.Load(ctx)
}

// Submit hands in a student's work. Blank text and overdue assignments are
// rejected locally.
func (p *AssignmentDetailPage) Submit(ctx context.Context, text string) error {
	if err := p.requireRole(models.RoleStudent); err != nil {
		return err
	}
	now := p.deps.Now()

	p.mu.Lock()
	switch {
	case !p.readyLocked() || p.assignment == nil:
		p.mu.Unlock()
		return appErrors.Clone(appErrors.ErrConflict, "assignment is not loaded")
	case p.submitted:
		p.mu.Unlock()
		return appErrors.Clone(appErrors.ErrConflict, "assignment already submitted")
	}
	overdue := p.assignment.StatusAt(now) == models.DueStatusOverdue
	if strings.TrimSpace(text) == "" || overdue {
		p.mu.Unlock()
		message := "Please enter your submission content."
		if overdue {
			message = "Assignment Overdue"
		}
		p.deps.Notifier.Notify(ctx, models.NotificationError, message)
		return appErrors.Clone(appErrors.ErrValidation, message)
	}
	if err := ctx.Err(); err != nil {
		p.mu.Unlock()
		p.deps.Notifier.Notify(ctx, models.NotificationError, "Failed to submit assignment. Please try again.")
		return appErrors.Wrap(err, appErrors.ErrRemote.Code, appErrors.ErrRemote.Status, "failed to submit assignment")
	}
	p.submitted = true
	p.mu.Unlock()

	p.deps.Notifier.Notify(ctx, models.NotificationSuccess, "Assignment submitted successfully!")
	return nil
}

// Snapshot renders the page.
func (p *AssignmentDetailPage) Snapshot() AssignmentDetailView {
	role := p.deps.session().Role
	now := p.deps.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	view := AssignmentDetailView{Status: p.status(), Submitted: p.submitted}
	if !p.readyLocked() || p.assignment == nil {
		return view
	}
	var classes []models.Class
	if p.class != nil {
		class := *p.class
		view.Class = &class
		classes = append(classes, class)
	}
	row := assignmentRows([]models.Assignment{*p.assignment}, classes, now, nil)[0]
	view.Assignment = &row
	view.CanSubmit = role == models.RoleStudent && !p.submitted && row.Status != models.DueStatusOverdue
	view.StatusLabel = statusLabel(row.Status, p.submitted)
	return view
}

func statusLabel(status models.DueStatus, submitted bool) string {
	if submitted {
		return "Submitted"
	}
	switch status {
	case models.DueStatusOverdue:
		return "Overdue"
	case models.DueStatusDueSoon:
		return "Due Soon"
	case models.DueStatusUpcoming:
		return "Upcoming"
	default:
		return "Active"
	}
}

// requireClass rejects announcement drafts with no class selected.
func requireClass(fields models.Fields) error {
	raw, ok := service.FieldValue(fields, "classId")
	if ok && raw != nil {
		if text := strings.TrimSpace(fmt.Sprint(raw)); text != "" && text != "0" {
			return nil
		}
	}
	return appErrors.WithDetails(appErrors.ErrValidation, requiredFieldsMessage, []string{"class_id is required"})
}
