package models

// UserRole selects which views and navigation a client sees.
type UserRole string

const (
	RoleTeacher UserRole = "teacher"
	RoleStudent UserRole = "student"
)

// Valid reports whether the role is one of the selectable roles.
func (r UserRole) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// User describes the signed-in person. It is chosen by role selection and
// never verified.
type User struct {
	ID        int64    `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// SessionState is the role and user held for one client. A zero value means
// signed out.
type SessionState struct {
	Role UserRole `json:"role,omitempty"`
	User *User    `json:"user,omitempty"`
}

// SignedIn reports whether a role has been selected.
func (s SessionState) SignedIn() bool {
	return s.Role.Valid()
}

// IsTeacher reports whether the session selected the teacher role.
func (s SessionState) IsTeacher() bool {
	return s.Role == RoleTeacher
}

// NavItem is one navigation entry shown for a role.
type NavItem struct {
	Path  string `json:"path"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// NavigationFor returns the navigation entries for a role. Signed-out
// sessions get none.
func NavigationFor(role UserRole) []NavItem {
	switch role {
	case RoleTeacher:
		return []NavItem{
			{Path: "/", Label: "Dashboard", Icon: "LayoutDashboard"},
			{Path: "/classes", Label: "Classes", Icon: "GraduationCap"},
			{Path: "/assignments", Label: "Assignments", Icon: "FileText"},
			{Path: "/gradebook", Label: "Gradebook", Icon: "Trophy"},
			{Path: "/announcements", Label: "Announcements", Icon: "Megaphone"},
		}
	case RoleStudent:
		return []NavItem{
			{Path: "/", Label: "Dashboard", Icon: "LayoutDashboard"},
			{Path: "/classes", Label: "Classes", Icon: "GraduationCap"},
			{Path: "/assignments", Label: "Assignments", Icon: "FileText"},
			{Path: "/grades", Label: "Grades", Icon: "Trophy"},
			{Path: "/announcements", Label: "Announcements", Icon: "Megaphone"},
		}
	default:
		return []NavItem{}
	}
}
