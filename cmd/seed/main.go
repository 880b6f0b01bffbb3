package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/readstack/catalog/internal/catalog"
	"github.com/readstack/catalog/internal/config"
	"github.com/readstack/catalog/internal/platform/database"
	accountssvc "github.com/readstack/catalog/internal/services/accounts"
	"github.com/readstack/catalog/internal/storage/sqlstore"
	"github.com/readstack/catalog/pkg/logger"
)

type fixtures struct {
	Genres    []string        `yaml:"genres"`
	Languages []string        `yaml:"languages"`
	Authors   []authorFixture `yaml:"authors"`
	Users     []userFixture   `yaml:"users"`
	Books     []bookFixture   `yaml:"books"`
	Copies    []copyFixture   `yaml:"copies"`
}

type authorFixture struct {
	FirstName   string `yaml:"first_name"`
	LastName    string `yaml:"last_name"`
	DateOfBirth string `yaml:"date_of_birth"`
	DateOfDeath string `yaml:"date_of_death"`
}

type userFixture struct {
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	FirstName   string   `yaml:"first_name"`
	LastName    string   `yaml:"last_name"`
	Permissions []string `yaml:"permissions"`
}

type bookFixture struct {
	Title    string   `yaml:"title"`
	Summary  string   `yaml:"summary"`
	ISBN     string   `yaml:"isbn"`
	Author   string   `yaml:"author"`
	Language string   `yaml:"language"`
	Genres   []string `yaml:"genres"`
}

type copyFixture struct {
	Book      string `yaml:"book"`
	Imprint   string `yaml:"imprint"`
	Status    string `yaml:"status"`
	Borrower  string `yaml:"borrower"`
	DueInDays *int   `yaml:"due_in_days"`
}

func main() {
	fixturesPath := flag.String("fixtures", "./fixtures/library.yml", "Path to the YAML fixture file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}
	if cfg.Database.Driver == "" {
		log.Fatalf("DATABASE_DRIVER must be set; seeding the in-memory store has no effect")
	}

	raw, err := os.ReadFile(filepath.Clean(*fixturesPath))
	if err != nil {
		log.Fatalf("read fixtures: %v", err)
	}
	var fx fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		log.Fatalf("parse fixtures (%s): %v", *fixturesPath, err)
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.Database.Driver); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	store := sqlstore.New(db, cfg.Database.Driver)
	accounts := accountssvc.New(store, store, []byte(cfg.Auth.JWTSecret), cfg.Auth.SessionTTL, logger.NewDefault("seed"))

	s := &seeder{
		store:     store,
		accounts:  accounts,
		genres:    make(map[string]int64),
		languages: make(map[string]int64),
		authors:   make(map[string]int64),
		books:     make(map[string]int64),
		users:     make(map[string]int64),
	}
	if err := s.run(ctx, fx); err != nil {
		log.Fatalf("seed: %v", err)
	}

	fmt.Printf("Seeded %d authors, %d books, %d copies and %d users into %s\n",
		len(fx.Authors), len(fx.Books), len(fx.Copies), len(fx.Users), cfg.Database.Driver)
}

type seeder struct {
	store    *sqlstore.Store
	accounts *accountssvc.Service

	genres    map[string]int64
	languages map[string]int64
	authors   map[string]int64
	books     map[string]int64
	users     map[string]int64
}

func (s *seeder) run(ctx context.Context, fx fixtures) error {
	for _, name := range fx.Genres {
		genre, err := s.store.CreateGenre(ctx, catalog.Genre{Name: name})
		if err != nil {
			return fmt.Errorf("genre %q: %w", name, err)
		}
		s.genres[name] = genre.ID
	}

	for _, name := range fx.Languages {
		lang, err := s.store.CreateLanguage(ctx, catalog.Language{Name: name})
		if err != nil {
			return fmt.Errorf("language %q: %w", name, err)
		}
		s.languages[name] = lang.ID
	}

	for _, f := range fx.Authors {
		birth, err := parseDate(f.DateOfBirth)
		if err != nil {
			return fmt.Errorf("author %s %s: %w", f.FirstName, f.LastName, err)
		}
		death, err := parseDate(f.DateOfDeath)
		if err != nil {
			return fmt.Errorf("author %s %s: %w", f.FirstName, f.LastName, err)
		}
		author, err := s.store.CreateAuthor(ctx, catalog.Author{
			FirstName:   f.FirstName,
			LastName:    f.LastName,
			DateOfBirth: birth,
			DateOfDeath: death,
		})
		if err != nil {
			return fmt.Errorf("author %s %s: %w", f.FirstName, f.LastName, err)
		}
		s.authors[author.DisplayName()] = author.ID
	}

	for _, f := range fx.Users {
		user, err := s.accounts.CreateUser(ctx, f.Username, f.Password, f.FirstName, f.LastName, f.Permissions...)
		if err != nil {
			return fmt.Errorf("user %q: %w", f.Username, err)
		}
		s.users[user.Username] = user.ID
	}

	for _, f := range fx.Books {
		authorID, ok := s.authors[f.Author]
		if !ok {
			return fmt.Errorf("book %q: unknown author %q", f.Title, f.Author)
		}
		languageID, ok := s.languages[f.Language]
		if !ok {
			return fmt.Errorf("book %q: unknown language %q", f.Title, f.Language)
		}
		genreIDs := make([]int64, 0, len(f.Genres))
		for _, g := range f.Genres {
			id, ok := s.genres[g]
			if !ok {
				return fmt.Errorf("book %q: unknown genre %q", f.Title, g)
			}
			genreIDs = append(genreIDs, id)
		}
		book, err := s.store.CreateBook(ctx, catalog.Book{
			Title:      f.Title,
			Summary:    f.Summary,
			ISBN:       f.ISBN,
			AuthorID:   authorID,
			LanguageID: languageID,
			GenreIDs:   genreIDs,
		})
		if err != nil {
			return fmt.Errorf("book %q: %w", f.Title, err)
		}
		s.books[book.Title] = book.ID
	}

	for i, f := range fx.Copies {
		bookID, ok := s.books[f.Book]
		if !ok {
			return fmt.Errorf("copy %d: unknown book %q", i, f.Book)
		}
		status := catalog.StatusAvailable
		if f.Status != "" {
			status = catalog.CopyStatus(f.Status)
			if !status.Valid() {
				return fmt.Errorf("copy %d: unknown status %q", i, f.Status)
			}
		}
		c := catalog.Copy{BookID: bookID, Imprint: f.Imprint, Status: status}
		if f.Borrower != "" {
			userID, ok := s.users[f.Borrower]
			if !ok {
				return fmt.Errorf("copy %d: unknown borrower %q", i, f.Borrower)
			}
			c.BorrowerID = &userID
			c.Status = catalog.StatusOnLoan
		}
		if f.DueInDays != nil {
			due := dateOnly(time.Now().UTC()).AddDate(0, 0, *f.DueInDays)
			c.DueBack = &due
		}
		if _, err := s.store.CreateCopy(ctx, c); err != nil {
			return fmt.Errorf("copy %d (%s): %w", i, f.Book, err)
		}
	}

	return nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", value, err)
	}
	return &t, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
