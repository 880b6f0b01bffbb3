package loans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/readstack/catalog/internal/catalog"
	"github.com/readstack/catalog/internal/metrics"
	"github.com/readstack/catalog/internal/storage"
	"github.com/readstack/catalog/pkg/logger"
)

// Renewal window rules.
var (
	ErrRenewalInPast = errors.New("renewal date is in the past")
	ErrRenewalTooFar = errors.New("renewal date is more than four weeks ahead")
	ErrNotAvailable  = errors.New("copy is not available for loan")
	ErrNotOnLoan     = errors.New("copy is not on loan")
)

const (
	// DefaultLoanWeeks is the proposed loan term for checkouts and renewals.
	DefaultLoanWeeks = 3
	// MaxRenewalWeeks bounds how far ahead a renewal may be pushed.
	MaxRenewalWeeks = 4
)

// Loan is a borrowed copy joined with its book and borrower.
type Loan struct {
	Copy     catalog.Copy
	Book     catalog.Book
	Borrower *catalog.User
}

// Service manages the lending lifecycle of book copies.
type Service struct {
	copies storage.CopyStore
	books  storage.BookStore
	users  storage.UserStore
	log    *logger.Logger
}

// New constructs a loans service.
func New(copies storage.CopyStore, books storage.BookStore, users storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("loans")
	}
	return &Service{copies: copies, books: books, users: users, log: log}
}

// DefaultRenewalDate proposes today plus the standard loan term.
func (s *Service) DefaultRenewalDate() time.Time {
	return dateOnly(time.Now()).AddDate(0, 0, DefaultLoanWeeks*7)
}

// Renew moves a copy's due date. The new date must not be in the past and
// must be at most four weeks from today.
func (s *Service) Renew(ctx context.Context, copyID string, date time.Time) (catalog.Copy, error) {
	cp, err := s.copies.GetCopy(ctx, copyID)
	if err != nil {
		return catalog.Copy{}, err
	}

	date = dateOnly(date)
	today := dateOnly(time.Now())
	if date.Before(today) {
		return catalog.Copy{}, ErrRenewalInPast
	}
	if date.After(today.AddDate(0, 0, MaxRenewalWeeks*7)) {
		return catalog.Copy{}, ErrRenewalTooFar
	}

	cp.DueBack = &date
	cp, err = s.copies.UpdateCopy(ctx, cp)
	if err != nil {
		return catalog.Copy{}, err
	}
	metrics.RecordLoanEvent("renew")
	s.log.WithField("copy_id", cp.ID).
		WithField("due_back", date.Format("2006-01-02")).
		Info("loan renewed")
	return cp, nil
}

// Loan loads a single copy with its book and borrower.
func (s *Service) Loan(ctx context.Context, copyID string) (Loan, error) {
	cp, err := s.copies.GetCopy(ctx, copyID)
	if err != nil {
		return Loan{}, err
	}
	loans, err := s.enrich(ctx, []catalog.Copy{cp})
	if err != nil {
		return Loan{}, err
	}
	return loans[0], nil
}

// Borrowed returns one page of the user's active loans, soonest due first.
func (s *Service) Borrowed(ctx context.Context, userID int64, limit, offset int) ([]Loan, int, error) {
	copies, total, err := s.copies.ListBorrowedByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	loans, err := s.enrich(ctx, copies)
	if err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

// AllBorrowed returns one page of every active loan across borrowers.
func (s *Service) AllBorrowed(ctx context.Context, limit, offset int) ([]Loan, int, error) {
	copies, total, err := s.copies.ListBorrowed(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	loans, err := s.enrich(ctx, copies)
	if err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

// Checkout lends an available copy to a user. A nil due date gets the
// standard three week term.
func (s *Service) Checkout(ctx context.Context, copyID string, userID int64, due *time.Time) (catalog.Copy, error) {
	cp, err := s.copies.GetCopy(ctx, copyID)
	if err != nil {
		return catalog.Copy{}, err
	}
	if cp.Status != catalog.StatusAvailable {
		return catalog.Copy{}, fmt.Errorf("copy %s: %w", copyID, ErrNotAvailable)
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return catalog.Copy{}, fmt.Errorf("borrower validation failed: %w", err)
	}

	dueBack := s.DefaultRenewalDate()
	if due != nil {
		dueBack = dateOnly(*due)
	}

	cp.Status = catalog.StatusOnLoan
	cp.BorrowerID = &userID
	cp.DueBack = &dueBack
	cp, err = s.copies.UpdateCopy(ctx, cp)
	if err != nil {
		return catalog.Copy{}, err
	}
	metrics.RecordLoanEvent("checkout")
	s.log.WithField("copy_id", cp.ID).
		WithField("borrower_id", userID).
		WithField("due_back", dueBack.Format("2006-01-02")).
		Info("copy checked out")
	return cp, nil
}

// Return puts a loaned copy back on the shelf.
func (s *Service) Return(ctx context.Context, copyID string) (catalog.Copy, error) {
	cp, err := s.copies.GetCopy(ctx, copyID)
	if err != nil {
		return catalog.Copy{}, err
	}
	if cp.Status != catalog.StatusOnLoan {
		return catalog.Copy{}, fmt.Errorf("copy %s: %w", copyID, ErrNotOnLoan)
	}

	cp.Status = catalog.StatusAvailable
	cp.BorrowerID = nil
	cp.DueBack = nil
	cp, err = s.copies.UpdateCopy(ctx, cp)
	if err != nil {
		return catalog.Copy{}, err
	}
	metrics.RecordLoanEvent("return")
	s.log.WithField("copy_id", cp.ID).Info("copy returned")
	return cp, nil
}

// CreateCopy registers a new physical copy of a book.
func (s *Service) CreateCopy(ctx context.Context, bookID int64, imprint string, status catalog.CopyStatus) (catalog.Copy, error) {
	imprint = strings.TrimSpace(imprint)
	if imprint == "" {
		return catalog.Copy{}, fmt.Errorf("imprint is required")
	}
	if status == "" {
		status = catalog.StatusMaintenance
	}
	if !status.Valid() {
		return catalog.Copy{}, fmt.Errorf("unknown copy status %q", status)
	}
	if _, err := s.books.GetBook(ctx, bookID); err != nil {
		return catalog.Copy{}, fmt.Errorf("book validation failed: %w", err)
	}

	cp, err := s.copies.CreateCopy(ctx, catalog.Copy{
		BookID:  bookID,
		Imprint: imprint,
		Status:  status,
	})
	if err != nil {
		return catalog.Copy{}, err
	}
	s.log.WithField("copy_id", cp.ID).
		WithField("book_id", bookID).
		Info("copy created")
	return cp, nil
}

// CountOverdue reports how many loans are past due as of now.
func (s *Service) CountOverdue(ctx context.Context) (int, error) {
	return s.copies.CountOverdue(ctx, time.Now())
}

func (s *Service) enrich(ctx context.Context, copies []catalog.Copy) ([]Loan, error) {
	bookIDs := lo.Uniq(lo.Map(copies, func(c catalog.Copy, _ int) int64 { return c.BookID }))
	books := make(map[int64]catalog.Book, len(bookIDs))
	for _, id := range bookIDs {
		book, err := s.books.GetBook(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		books[id] = book
	}

	borrowerIDs := lo.Uniq(lo.FilterMap(copies, func(c catalog.Copy, _ int) (int64, bool) {
		if c.BorrowerID == nil {
			return 0, false
		}
		return *c.BorrowerID, true
	}))
	borrowers := make(map[int64]catalog.User, len(borrowerIDs))
	for _, id := range borrowerIDs {
		user, err := s.users.GetUser(ctx, id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, err
		}
		borrowers[id] = user
	}

	loans := make([]Loan, 0, len(copies))
	for _, cp := range copies {
		loan := Loan{Copy: cp, Book: books[cp.BookID]}
		if cp.BorrowerID != nil {
			if user, ok := borrowers[*cp.BorrowerID]; ok {
				loan.Borrower = &user
			}
		}
		loans = append(loans, loan)
	}
	return loans, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
