package accounts

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/readstack/catalog/internal/catalog"
	"github.com/readstack/catalog/internal/storage"
	"github.com/readstack/catalog/pkg/logger"
)

const tokenIssuer = "readstack-catalog"

// ErrInvalidCredentials is returned for unknown usernames and wrong passwords
// alike, so callers cannot probe which usernames exist.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service manages users, password checks and login sessions. Tokens are HS256
// JWTs backed by a session row keyed on the sha256 hash of the token, so
// logout revokes them server-side.
type Service struct {
	users    storage.UserStore
	sessions storage.SessionStore
	secret   []byte
	ttl      time.Duration
	log      *logger.Logger
}

// New constructs an accounts service. An empty secret gets replaced by an
// ephemeral random one, which invalidates sessions on restart.
func New(users storage.UserStore, sessions storage.SessionStore, secret []byte, ttl time.Duration, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("accounts")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.WithError(err).Fatal("generate session secret")
		}
		log.Warn("JWT_SECRET not set; using an ephemeral signing key")
	}
	return &Service{
		users:    users,
		sessions: sessions,
		secret:   secret,
		ttl:      ttl,
		log:      log,
	}
}

// CreateUser registers a member with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, username, password, firstName, lastName string, perms ...string) (catalog.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return catalog.User{}, fmt.Errorf("username is required")
	}
	if password == "" {
		return catalog.User{}, fmt.Errorf("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return catalog.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, catalog.User{
		Username:     username,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Permissions:  perms,
	})
	if err != nil {
		return catalog.User{}, err
	}

	s.log.WithField("user_id", user.ID).
		WithField("username", user.Username).
		Info("user created")
	return user, nil
}

// Grant adds permissions to an existing user.
func (s *Service) Grant(ctx context.Context, userID int64, perms ...string) (catalog.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return catalog.User{}, err
	}

	for _, perm := range perms {
		if !user.HasPermission(perm) {
			user.Permissions = append(user.Permissions, perm)
		}
	}

	user, err = s.users.UpdateUser(ctx, user)
	if err != nil {
		return catalog.User{}, err
	}
	s.log.WithField("user_id", user.ID).
		WithField("permissions", strings.Join(perms, ",")).
		Info("permissions granted")
	return user, nil
}

// Authenticate checks a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (catalog.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return catalog.User{}, ErrInvalidCredentials
		}
		return catalog.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return catalog.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (catalog.User, string, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return catalog.User{}, "", err
	}

	token, err := s.IssueSession(ctx, user)
	if err != nil {
		return catalog.User{}, "", err
	}
	return user, token, nil
}

// IssueSession signs a JWT for the user and records the session.
func (s *Service) IssueSession(ctx context.Context, user catalog.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	_, err = s.sessions.CreateSession(ctx, catalog.Session{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: now.Add(s.ttl).UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("record session: %w", err)
	}

	s.log.WithField("user_id", user.ID).Info("session issued")
	return token, nil
}

// UserFromToken resolves a bearer token to its user. The JWT signature, the
// session row and the expiry must all check out.
func (s *Service) UserFromToken(ctx context.Context, token string) (catalog.User, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return catalog.User{}, err
	}

	session, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		return catalog.User{}, fmt.Errorf("session lookup: %w", err)
	}
	if time.Now().After(session.ExpiresAt) {
		return catalog.User{}, fmt.Errorf("session expired")
	}
	_ = s.sessions.TouchSession(ctx, session.ID, time.Now())

	return s.users.GetUser(ctx, claims.UserID)
}

// Logout revokes the session behind the token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	session, err := s.sessions.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.sessions.DeleteSession(ctx, session.ID); err != nil {
		return err
	}
	s.log.WithField("user_id", session.UserID).Info("session revoked")
	return nil
}

// PurgeExpired deletes sessions past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int, error) {
	return s.sessions.DeleteExpiredSessions(ctx, time.Now())
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
