package catalog

import "time"

// CopyStatus describes where a physical copy currently is in its lifecycle.
type CopyStatus string

const (
	StatusMaintenance CopyStatus = "m"
	StatusOnLoan      CopyStatus = "o"
	StatusAvailable   CopyStatus = "a"
	StatusReserved    CopyStatus = "r"
)

var copyStatusLabels = map[CopyStatus]string{
	StatusMaintenance: "Maintenance",
	StatusOnLoan:      "On loan",
	StatusAvailable:   "Available",
	StatusReserved:    "Reserved",
}

// Valid reports whether the status is one of the known codes.
func (s CopyStatus) Valid() bool {
	_, ok := copyStatusLabels[s]
	return ok
}

// Display returns the human-readable label for the status code.
func (s CopyStatus) Display() string {
	if label, ok := copyStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// CopyStatuses lists the status codes in their display order.
func CopyStatuses() []CopyStatus {
	return []CopyStatus{StatusMaintenance, StatusOnLoan, StatusAvailable, StatusReserved}
}

// Copy is a physical copy of a book that patrons can borrow. DueBack and
// BorrowerID are only set while the copy is on loan.
type Copy struct {
	ID         string
	BookID     int64
	Imprint    string
	DueBack    *time.Time
	BorrowerID *int64
	Status     CopyStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Overdue reports whether the copy is past its due date on the given day.
func (c Copy) Overdue(today time.Time) bool {
	if c.DueBack == nil {
		return false
	}
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return c.DueBack.Before(day)
}
