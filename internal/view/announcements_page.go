package view

import (
	"context"

	"github.com/noah-isme/classconnect-api/internal/models"
)

// AnnouncementRow is an announcement with its audience label.
type AnnouncementRow struct {
	models.Announcement
	Audience string `json:"audience"`
}

// AnnouncementsView is the rendered announcements page.
type AnnouncementsView struct {
	Status
	ClassFilter   int64             `json:"class_filter,omitempty"`
	Announcements []AnnouncementRow `json:"announcements"`
	Classes       []models.Class    `json:"classes"`
	Modal         Modal             `json:"modal"`
	CanCreate     bool              `json:"can_create"`
}

// AnnouncementsPage lists announcements with a class dropdown filter.
type AnnouncementsPage struct {
	*Lifecycle
	announcements []models.Announcement
	classes       []models.Class
	classFilter   int64
	modal         Modal
}

// NewAnnouncementsPage binds an announcements page to parent.
func NewAnnouncementsPage(parent context.Context, deps Deps) *AnnouncementsPage {
	p := &AnnouncementsPage{Lifecycle: newLifecycle(parent, "announcements", "Failed to load announcements. Please try again.", deps)}
	p.reload = p.Load
	return p
}

// Load fetches announcements and classes concurrently.
func (p *AnnouncementsPage) Load(ctx context.Context) error {
	ctx, done, gen := p.begin(ctx)
	defer done()
	var (
		announcements []models.Announcement
		classes       []models.Class
	)
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) {
			announcements, err = p.deps.Announcements.GetAll(ctx)
			return err
		},
		func(ctx context.Context) (err error) {
			classes, err = p.deps.Classes.GetAll(ctx)
			return err
		},
	)
	return p.settle(gen, err, func() {
		p.announcements = announcements
		p.classes = classes
	})
}

// FilterClass shows only one class's announcements. Zero shows all.
func (p *AnnouncementsPage) FilterClass(classID int64) {
	p.mu.Lock()
	p.classFilter = classID
	p.mu.Unlock()
}

// OpenCreate shows the create dialog.
func (p *AnnouncementsPage) OpenCreate() {
	p.mu.Lock()
	p.modal.Open = true
	p.mu.Unlock()
}

// Create posts an announcement to a class. Teachers only.
func (p *AnnouncementsPage) Create(ctx context.Context, fields models.Fields) (*models.Announcement, error) {
	if err := p.requireRole(models.RoleTeacher); err != nil {
		return nil, err
	}
	return submitCreate(ctx, p.Lifecycle, &p.modal,
		func(ctx context.Context) error {
			if err := p.deps.Announcements.Validate(ctx, fields); err != nil {
				return err
			}
			return requireClass(fields)
		},
		func(ctx context.Context) (*models.Announcement, error) { return p.deps.Announcements.Create(ctx, fields) },
		func(a models.Announcement) { p.announcements = prepend(p.announcements, a) },
	)
}

// Snapshot renders the page.
func (p *AnnouncementsPage) Snapshot() AnnouncementsView {
	role := p.deps.session().Role
	p.mu.Lock()
	defer p.mu.Unlock()
	view := AnnouncementsView{
		Status:        p.status(),
		ClassFilter:   p.classFilter,
		Announcements: []AnnouncementRow{},
		Classes:       []models.Class{},
		Modal:         p.modal,
		CanCreate:     role == models.RoleTeacher,
	}
	if !p.readyLocked() {
		return view
	}
	view.Classes = p.classes
	for _, a := range p.announcements {
		if p.classFilter != 0 && (a.ClassID == nil || *a.ClassID != p.classFilter) {
			continue
		}
		view.Announcements = append(view.Announcements, AnnouncementRow{Announcement: a, Audience: a.AudienceLabel(p.classes)})
	}
	return view
}
