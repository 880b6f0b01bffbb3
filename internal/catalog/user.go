package catalog

import "time"

// Permission codenames gate staff operations. Regular patrons have none.
const (
	PermRenew        = "catalog.can_renew"
	PermMarkReturned = "catalog.can_mark_returned"
	PermViewAllLoans = "catalog.view_all_borrowed"
	PermAddAuthor    = "catalog.add_author"
	PermChangeAuthor = "catalog.change_author"
	PermDeleteAuthor = "catalog.delete_author"
	PermAddBook      = "catalog.add_book"
	PermAddCopy      = "catalog.add_copy"
)

// User is a library member. PasswordHash is a bcrypt digest and never leaves
// the accounts service.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	Permissions  []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasPermission reports whether the user carries the given codename.
func (u User) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Session is a server-side login record. TokenHash is the sha256 hex digest
// of the bearer token so a database leak does not expose live credentials.
type Session struct {
	ID         string
	UserID     int64
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}
