package view

import (
	"context"

	"github.com/noah-isme/classconnect-api/internal/models"
)

const (
	dashboardRecent   = 3
	dashboardUpcoming = 4
	upcomingWindow    = 7
)

// DashboardView is the rendered dashboard for either role.
type DashboardView struct {
	Status
	Role             models.UserRole `json:"role"`
	Classes          []models.Class  `json:"classes"`
	Assignments      []AssignmentRow `json:"assignments"`
	TotalClasses     int             `json:"total_classes"`
	TotalAssignments int             `json:"total_assignments"`
}

// DashboardPage is the landing page. Teachers see their most recent classes
// and assignments with totals; students see their first classes and work
// due within a week.
type DashboardPage struct {
	*Lifecycle
	classes     []models.Class
	assignments []models.Assignment
}

// NewDashboardPage binds a dashboard to parent.
func NewDashboardPage(parent context.Context, deps Deps) *DashboardPage {
	p := &DashboardPage{Lifecycle: newLifecycle(parent, "dashboard", "Failed to load dashboard data. Please try again.", deps)}
	p.reload = p.Load
	return p
}

// Load fetches classes and assignments concurrently.
func (p *DashboardPage) Load(ctx context.Context) error {
	ctx, done, gen := p.begin(ctx)
	defer done()
	var (
		classes     []models.Class
		assignments []models.Assignment
	)
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) {
			classes, err = p.deps.Classes.GetAll(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			assignments, err = p.deps.Assignments.GetAll(ctx)
			return err
		},
	)
	return p.settle(gen, err, func() {
		p.classes = classes
		p.assignments = assignments
	})
}

// Snapshot renders the variant for the session role.
func (p *DashboardPage) Snapshot() DashboardView {
	role := p.deps.session().Role
	now := p.deps.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	view := DashboardView{Status: p.status(), Role: role, Classes: []models.Class{}, Assignments: []AssignmentRow{}}
	if !p.readyLocked() {
		return view
	}

	view.Classes = firstN(p.classes, dashboardRecent)
	view.TotalClasses = len(p.classes)
	view.TotalAssignments = len(p.assignments)
	if role == models.RoleTeacher {
		view.Assignments = assignmentRows(firstN(p.assignments, dashboardRecent), p.classes, now, nil)
		return view
	}

	upcoming := assignmentRows(p.assignments, p.classes, now, func(a models.Assignment) bool {
		return a.DueDate.After(now) && models.DaysUntil(a.DueDate, now) <= upcomingWindow
	})
	view.Assignments = firstN(upcoming, dashboardUpcoming)
	view.TotalClasses = len(view.Classes)
	return view
}

func firstN[T any](list []T, n int) []T {
	if len(list) > n {
		list = list[:n]
	}
	return append([]T{}, list...)
}
