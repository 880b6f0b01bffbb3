package catalog

import "time"

// Author is a person who wrote one or more books in the catalog.
type Author struct {
	ID          int64
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	DateOfDeath *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName renders the author the way lists and detail pages show it.
func (a Author) DisplayName() string {
	if a.LastName == "" {
		return a.FirstName
	}
	if a.FirstName == "" {
		return a.LastName
	}
	return a.LastName + ", " + a.FirstName
}
