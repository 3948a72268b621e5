package view

import (
	"context"
	"strings"

	"github.com/noah-isme/classconnect-api/internal/models"
	"github.com/noah-isme/classconnect-api/internal/service"
)

// ClassesView is the rendered classes page.
type ClassesView struct {
	Status
	Role      models.UserRole `json:"role,omitempty"`
	Search    string          `json:"search"`
	Classes   []models.Class  `json:"classes"`
	Total     int             `json:"total"`
	Modal     Modal           `json:"modal"`
	CanCreate bool            `json:"can_create"`
	CanJoin   bool            `json:"can_join"`
}

// ClassesPage lists classes. Teachers create classes, students join by code.
type ClassesPage struct {
	*Lifecycle
	classes []models.Class
	search  string
	modal   Modal
}

// NewClassesPage binds a classes page to parent.
func NewClassesPage(parent context.Context, deps Deps) *ClassesPage {
	p := &ClassesPage{Lifecycle: newLifecycle(parent, "classes", "Failed to load classes. Please try again.", deps)}
	p.reload = p.Load
	return p
}

// Load fetches every class.
func (p *ClassesPage) Load(ctx context.Context) error {
	ctx, done, gen := p.begin(ctx)
	defer done()
	classes, err := p.deps.Classes.GetAll(ctx)
	return p.settle(gen, err, func() { p.classes = classes })
}

// Search filters the loaded classes by name or description.
func (p *ClassesPage) Search(term string) {
	p.mu.Lock()
	p.search = term
	p.mu.Unlock()
}

// OpenCreate shows the create dialog.
func (p *ClassesPage) OpenCreate() {
	p.mu.Lock()
	p.modal.Open = true
	p.mu.Unlock()
}

// CloseCreate hides the create dialog unless a submission is in flight.
func (p *ClassesPage) CloseCreate() {
	p.mu.Lock()
	if !p.modal.Submitting {
		p.modal.Open = false
	}
	p.mu.Unlock()
}

// Create adds a class owned by the signed-in teacher.
func (p *ClassesPage) Create(ctx context.Context, fields models.Fields) (*models.Class, error) {
	if err := p.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	fields = withDefault(fields, "teacherId", p.signedInUserID())
	return submitCreate(ctx, p.Lifecycle, &p.modal,
		func(ctx context.Context) error { return p.deps.Classes.Validate(ctx, fields) },
		func(ctx context.Context) (*models.Class, error) { return p.deps.Classes.Create(ctx, fields) },
		func(c models.Class) { p.classes = prepend(p.classes, c) },
	)
}

// Join resolves a class code for a student and reloads the list on success.
func (p *ClassesPage) Join(ctx context.Context, code string) (*models.Class, error) {
	if err := p.requireRole(models.RoleStudent); err != nil {
		return nil, err
	}
	class, err := p.deps.Classes.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	p.deps.Notifier.Notify(ctx, models.NotificationSuccess, "Successfully joined the class!")
	return class, p.Load(ctx)
}

// Snapshot renders the page.
func (p *ClassesPage) Snapshot() ClassesView {
	role := p.deps.session().Role
	p.mu.Lock()
	defer p.mu.Unlock()
	view := ClassesView{
		Status:    p.status(),
		Role:      role,
		Search:    p.search,
		Classes:   []models.Class{},
		Modal:     p.modal,
		CanCreate: role == models.RoleTeacher,
		CanJoin:   role == models.RoleStudent,
	}
	if p.readyLocked() {
		for _, c := range p.classes {
			if matchesSearch(p.search, c.Name, c.Description) {
				view.Classes = append(view.Classes, c)
			}
		}
		view.Total = len(p.classes)
	}
	return view
}

func (p *ClassesPage) signedInUserID() int64 {
	if user := p.deps.session().User; user != nil {
		return user.ID
	}
	return 0
}

// matchesSearch is a case-insensitive substring match. A blank term matches
// everything.
func matchesSearch(term string, texts ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, text := range texts {
		if strings.Contains(strings.ToLower(text), term) {
			return true
		}
	}
	return false
}

// withDefault returns a copy of fields with canonical set when the caller
// supplied no spelling of it.
func withDefault(fields models.Fields, canonical string, value interface{}) models.Fields {
	out := make(models.Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	if !service.FieldSupplied(out, canonical) {
		out[canonical] = value
	}
	return out
}
