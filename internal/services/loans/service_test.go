package loans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/readstack/catalog/internal/catalog"
	"github.com/readstack/catalog/internal/storage/memory"
)

type fixture struct {
	store *memory.Store
	svc   *Service
	book  catalog.Book
	user  catalog.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	author, err := store.CreateAuthor(ctx, catalog.Author{FirstName: "Ursula", LastName: "Le Guin"})
	if err != nil {
		t.Fatalf("create author: %v", err)
	}
	lang, err := store.CreateLanguage(ctx, catalog.Language{Name: "English"})
	if err != nil {
		t.Fatalf("create language: %v", err)
	}
	book, err := store.CreateBook(ctx, catalog.Book{
		Title:      "A Wizard of Earthsea",
		ISBN:       "9780547773742",
		AuthorID:   author.ID,
		LanguageID: lang.ID,
	})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	user, err := store.CreateUser(ctx, catalog.User{Username: "patron", PasswordHash: "x"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	return &fixture{store: store, svc: New(store, store, store, nil), book: book, user: user}
}

func (f *fixture) copy(t *testing.T, status catalog.CopyStatus) catalog.Copy {
	t.Helper()
	cp, err := f.store.CreateCopy(context.Background(), catalog.Copy{
		BookID:  f.book.ID,
		Imprint: "First edition",
		Status:  status,
	})
	if err != nil {
		t.Fatalf("create copy: %v", err)
	}
	return cp
}

func TestCheckoutAndReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cp := f.copy(t, catalog.StatusAvailable)

	loaned, err := f.svc.Checkout(ctx, cp.ID, f.user.ID, nil)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if loaned.Status != catalog.StatusOnLoan {
		t.Fatalf("expected on-loan status, got %q", loaned.Status)
	}
	if loaned.BorrowerID == nil || *loaned.BorrowerID != f.user.ID {
		t.Fatalf("borrower not recorded")
	}
	want := f.svc.DefaultRenewalDate()
	if loaned.DueBack == nil || !loaned.DueBack.Equal(want) {
		t.Fatalf("expected default due %v, got %v", want, loaned.DueBack)
	}

	// A copy already out cannot be checked out again.
	if _, err := f.svc.Checkout(ctx, cp.ID, f.user.ID, nil); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}

	returned, err := f.svc.Return(ctx, cp.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Status != catalog.StatusAvailable || returned.BorrowerID != nil || returned.DueBack != nil {
		t.Fatalf("copy not cleared: %+v", returned)
	}

	if _, err := f.svc.Return(ctx, cp.ID); !errors.Is(err, ErrNotOnLoan) {
		t.Fatalf("expected ErrNotOnLoan, got %v", err)
	}
}

func TestCheckoutUnknownUser(t *testing.T) {
	f := newFixture(t)
	cp := f.copy(t, catalog.StatusAvailable)

	if _, err := f.svc.Checkout(context.Background(), cp.ID, 999, nil); err == nil {
		t.Fatalf("expected error for unknown borrower")
	}
}

func TestRenewWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	today := time.Now()

	cases := []struct {
		name string
		date time.Time
		err  error
	}{
		{"today", today, nil},
		{"three weeks out", today.AddDate(0, 0, 21), nil},
		{"exactly four weeks", today.AddDate(0, 0, 28), nil},
		{"yesterday", today.AddDate(0, 0, -1), ErrRenewalInPast},
		{"past four weeks", today.AddDate(0, 0, 29), ErrRenewalTooFar},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cp := f.copy(t, catalog.StatusAvailable)
			if _, err := f.svc.Checkout(ctx, cp.ID, f.user.ID, nil); err != nil {
				t.Fatalf("checkout: %v", err)
			}

			renewed, err := f.svc.Renew(ctx, cp.ID, tc.date)
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("renew: %v", err)
			}

			want := time.Date(tc.date.Year(), tc.date.Month(), tc.date.Day(), 0, 0, 0, 0, time.UTC)
			if renewed.DueBack == nil || !renewed.DueBack.Equal(want) {
				t.Fatalf("expected due %v, got %v", want, renewed.DueBack)
			}
		})
	}
}

func TestBorrowedEnrichment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.copy(t, catalog.StatusAvailable)
	second := f.copy(t, catalog.StatusAvailable)
	nearDue := time.Now().UTC().AddDate(0, 0, 2)
	farDue := time.Now().UTC().AddDate(0, 0, 12)
	if _, err := f.svc.Checkout(ctx, first.ID, f.user.ID, &farDue); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := f.svc.Checkout(ctx, second.ID, f.user.ID, &nearDue); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	loans, total, err := f.svc.Borrowed(ctx, f.user.ID, 10, 0)
	if err != nil {
		t.Fatalf("borrowed: %v", err)
	}
	if total != 2 || len(loans) != 2 {
		t.Fatalf("expected 2 loans, got %d (total %d)", len(loans), total)
	}
	if loans[0].Copy.ID != second.ID {
		t.Fatalf("loans not ordered by due date")
	}
	for _, loan := range loans {
		if loan.Book.Title != "A Wizard of Earthsea" {
			t.Fatalf("book not joined onto loan: %+v", loan.Book)
		}
	}

	all, total, err := f.svc.AllBorrowed(ctx, 10, 0)
	if err != nil {
		t.Fatalf("all borrowed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 loans overall, got %d", total)
	}
	if all[0].Borrower == nil || all[0].Borrower.Username != "patron" {
		t.Fatalf("borrower not joined onto loan")
	}
}

func TestLoanLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cp := f.copy(t, catalog.StatusAvailable)
	if _, err := f.svc.Checkout(ctx, cp.ID, f.user.ID, nil); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	loan, err := f.svc.Loan(ctx, cp.ID)
	if err != nil {
		t.Fatalf("loan: %v", err)
	}
	if loan.Book.Title != "A Wizard of Earthsea" || loan.Borrower == nil {
		t.Fatalf("loan not enriched: %+v", loan)
	}

	if _, err := f.svc.Loan(ctx, "no-such-copy"); err == nil {
		t.Fatalf("expected error for unknown copy")
	}
}

func TestCreateCopyValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cp, err := f.svc.CreateCopy(ctx, f.book.ID, "Puffin Books, 1971", "")
	if err != nil {
		t.Fatalf("create copy: %v", err)
	}
	if cp.Status != catalog.StatusMaintenance {
		t.Fatalf("expected default maintenance status, got %q", cp.Status)
	}

	if _, err := f.svc.CreateCopy(ctx, f.book.ID, "", catalog.StatusAvailable); err == nil {
		t.Fatalf("expected error for empty imprint")
	}
	if _, err := f.svc.CreateCopy(ctx, f.book.ID, "X", "q"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	if _, err := f.svc.CreateCopy(ctx, 999, "X", catalog.StatusAvailable); err == nil {
		t.Fatalf("expected error for unknown book")
	}
}

func TestCountOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	onTime := f.copy(t, catalog.StatusAvailable)
	late := f.copy(t, catalog.StatusAvailable)
	future := time.Now().UTC().AddDate(0, 0, 7)
	past := time.Now().UTC().AddDate(0, 0, -7)
	if _, err := f.svc.Checkout(ctx, onTime.ID, f.user.ID, &future); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if _, err := f.svc.Checkout(ctx, late.ID, f.user.ID, &past); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	count, err := f.svc.CountOverdue(ctx)
	if err != nil {
		t.Fatalf("count overdue: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 overdue loan, got %d", count)
	}
}
