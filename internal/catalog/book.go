package catalog

import "time"

// Book is a bibliographic record. Physical copies that can be borrowed are
// tracked separately as Copy rows.
type Book struct {
	ID         int64
	Title      string
	Summary    string
	ISBN       string
	AuthorID   int64
	LanguageID int64
	GenreIDs   []int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Genre classifies books (science fiction, poetry, and so on).
type Genre struct {
	ID   int64
	Name string
}

// Language is the natural language a book is written in.
type Language struct {
	ID   int64
	Name string
}
