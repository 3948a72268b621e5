package view

import (
	"context"

	"github.com/noah-isme/classconnect-api/internal/models"
)

// GradebookView is the rendered gradebook (teacher) or grades (student) page.
type GradebookView struct {
	Status
	SelectedClass int64           `json:"selected_class"`
	Classes       []models.Class  `json:"classes"`
	Assignments   []AssignmentRow `json:"assignments"`
}

// GradebookPage lists assignments per class. The first class is selected
// until the caller picks another; zero selects every class.
type GradebookPage struct {
	*Lifecycle
	assignments []models.Assignment
	classes     []models.Class
	selected    int64
	chosen      bool
}

// NewGradebookPage builds the teacher gradebook.
func NewGradebookPage(parent context.Context, deps Deps) *GradebookPage {
	return newGradebookPage(parent, "gradebook", "Failed to load gradebook data. Please try again.", deps)
}

// NewGradesPage builds the student grades page.
func NewGradesPage(parent context.Context, deps Deps) *GradebookPage {
	return newGradebookPage(parent, "grades", "Failed to load grades data. Please try again.", deps)
}

func newGradebookPage(parent context.Context, page, failMessage string, deps Deps) *GradebookPage {
	p := &GradebookPage{Lifecycle: newLifecycle(parent, page, failMessage, deps)}
	p.reload = p.Load
	return p
}

// Load fetches assignments and classes concurrently.
func (p *GradebookPage) Load(ctx context.Context) error {
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

// SelectClass filters to one class; zero shows all classes.
func (p *GradebookPage) SelectClass(classID int64) {
	p.mu.Lock()
	p.selected = classID
	p.chosen = true
	p.mu.Unlock()
}

// SelectedClass returns the class the page is showing, zero for all.
func (p *GradebookPage) SelectedClass() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectedLocked()
}

func (p *GradebookPage) selectedLocked() int64 {
	if !p.chosen && len(p.classes) > 0 {
		return p.classes[0].ID
	}
	return p.selected
}

// Class returns a loaded class by id.
func (p *GradebookPage) Class(id int64) (models.Class, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.classes {
		if c.ID == id {
			return c, true
		}
	}
	return models.Class{}, false
}

// Assignments returns the loaded assignments of the selected class.
func (p *GradebookPage) Assignments() []models.Assignment {
	p.mu.Lock()
	defer p.mu.Unlock()
	selected := p.selectedLocked()
	out := make([]models.Assignment, 0, len(p.assignments))
	for _, a := range p.assignments {
		if selected == 0 || a.ClassID == selected {
			out = append(out, a)
		}
	}
	return out
}

// Snapshot renders the page.
func (p *GradebookPage) Snapshot() GradebookView {
	now := p.deps.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	view := GradebookView{Status: p.status(), Classes: []models.Class{}, Assignments: []AssignmentRow{}}
	if !p.readyLocked() {
		return view
	}
	selected := p.selectedLocked()
	view.SelectedClass = selected
	view.Classes = p.classes
	view.Assignments = assignmentRows(p.assignments, p.classes, now, func(a models.Assignment) bool {
		return selected == 0 || a.ClassID == selected
	})
	return view
}
