package view

import (
	"context"
	"time"

	"github.com/noah-isme/classconnect-api/internal/models"
)

// AssignmentRow is an assignment card: the record, its class name and its
// deadline badge.
type AssignmentRow struct {
	models.Assignment
	ClassName string           `json:"class_name"`
	Status    models.DueStatus `json:"status"`
	DaysUntil int              `json:"days_until"`
}

func assignmentRows(assignments []models.Assignment, classes []models.Class, now time.Time, keep func(models.Assignment) bool) []AssignmentRow {
	rows := make([]AssignmentRow, 0, len(assignments))
	for _, a := range assignments {
		if keep != nil && !keep(a) {
			continue
		}
		rows = append(rows, AssignmentRow{
			Assignment: a,
			ClassName:  models.ClassName(classes, a.ClassID),
			Status:     a.StatusAt(now),
			DaysUntil:  models.DaysUntil(a.DueDate, now),
		})
	}
	return rows
}

// AssignmentsView is the rendered assignments page.
type AssignmentsView struct {
	Status
	Search      string          `json:"search"`
	Assignments []AssignmentRow `json:"assignments"`
	Classes     []models.Class  `json:"classes"`
	Modal       Modal           `json:"modal"`
	CanCreate   bool            `json:"can_create"`
}

// AssignmentsPage lists every assignment with its class.
type AssignmentsPage struct {
	*Lifecycle
	assignments []models.Assignment
	classes     []models.Class
	search      string
	modal       Modal
}

// NewAssignmentsPage binds an assignments page to parent.
func NewAssignmentsPage(parent context.Context, deps Deps) *AssignmentsPage {
	p := &AssignmentsPage{Lifecycle: newLifecycle(parent, "assignments", "Failed to load assignments. Please try again.", deps)}
	p.reload = p.Load
	return p
}

// Load fetches assignments and classes concurrently.
func (p *AssignmentsPage) Load(ctx context.Context) error {
	ctx, done, gen := p.begin(ctx)
	defer done()
	var (
		assignments []models.Assignment
		classes     []models.Class
	)
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) {
			assignments, err = p.deps.Assignments.GetAll(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			classes, err = p.deps.Classes.GetAll(ctx)
			return err
		},
	)
	return p.settle(gen, err, func() {
		p.assignments = assignments
		p.classes = classes
	})
}

// Search filters by title or description.
func (p *AssignmentsPage) Search(term string) {
	p.mu.Lock()
	p.search = term
	p.mu.Unlock()
}

// OpenCreate shows the create dialog.
func (p *AssignmentsPage) OpenCreate() {
	p.mu.Lock()
	p.modal.Open = true
	p.mu.Unlock()
}

// Create posts a new assignment. Teachers only.
func (p *AssignmentsPage) Create(ctx context.Context, fields models.Fields) (*models.Assignment, error) {
	if err := p.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	return submitCreate(ctx, p.Lifecycle, &p.modal,
		func(ctx context.Context) error { return p.deps.Assignments.Validate(ctx, fields) },
		func(ctx context.Context) (*models.Assignment, error) { return p.deps.Assignments.Create(ctx, fields) },
		func(a models.Assignment) { p.assignments = prepend(p.assignments, a) },
	)
}

// Snapshot renders the page.
func (p *AssignmentsPage) Snapshot() AssignmentsView {
	role := p.deps.session().Role
	now := p.deps.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	view := AssignmentsView{
		Status:      p.status(),
		Search:      p.search,
		Assignments: []AssignmentRow{},
		Classes:     []models.Class{},
		Modal:       p.modal,
		CanCreate:   role == models.RoleTeacher,
	}
	if p.readyLocked() {
		view.Classes = p.classes
		view.Assignments = assignmentRows(p.assignments, p.classes, now, func(a models.Assignment) bool {
			return matchesSearch(p.search, a.Title, a.Description)
		})
	}
	return view
}
