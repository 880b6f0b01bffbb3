package storage

import "errors"

// ErrNotFound is returned when a record does not exist. Implementations map
// their driver-specific miss (sql.ErrNoRows, absent map key) to this error so
// callers can branch without knowing the backend.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a uniqueness constraint would be violated,
// for example a duplicate username.
var ErrConflict = errors.New("record already exists")
