package auth

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"estate-ledger/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrIdentityPasswordRequired = errors.New("Identity and password are required")
	ErrInvalidIdentity          = errors.New("Invalid Identity")
	ErrIdentityTaken            = errors.New("Identity already registered")
	ErrIncorrectPassword        = errors.New("Incorrect Password")
	ErrNotAuthenticated         = errors.New("Not authenticated")
)

const accountPrefix = "account:"

var identityPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,63}$`)

// Account is the login record behind a ledger identity.
type Account struct {
	Identity     string `json:"identity"`
	Fullname     string `json:"fullname"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

type RegisterInput struct {
	Identity string `json:"identity"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginInput struct {
	Identity string `json:"identity"`
	Password string `json:"password"`
}

// SessionUserShape is the object stored in session and returned by /me.
type SessionUserShape struct {
	Identity string `json:"identity"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
}

// UserFinder abstracts account registration and lookup (Redis in production, test doubles in handler tests).
type UserFinder interface {
	Register(ctx context.Context, in RegisterInput) (*Account, error)
	FindByIdentityAndPassword(ctx context.Context, identity, password string) (*Account, error)
}

// Service stores accounts in Redis as JSON under "account:<identity>".
type Service struct {
	Rdb  *redis.Client
	Cost int // bcrypt cost; zero means bcrypt.DefaultCost
}

func (s *Service) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

// Register creates an account. Identities are lower-cased and unique; the custody account name is reserved.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	identity := strings.ToLower(strings.TrimSpace(in.Identity))
	if identity == "" || in.Password == "" {
		return nil, ErrIdentityPasswordRequired
	}
	if !identityPattern.MatchString(identity) || identity == domain.CustodyAccount {
		return nil, ErrInvalidIdentity
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return nil, err
	}
	acc := &Account{
		Identity:     identity,
		Fullname:     in.Fullname,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().Unix(),
	}
	b, _ := json.Marshal(acc)
	ok, err := s.Rdb.SetNX(ctx, accountPrefix+identity, b, 0).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrIdentityTaken
	}
	log.Info().Str("identity", identity).Msg("Account registered")
	return acc, nil
}

// FindByIdentityAndPassword loads the account and verifies the password.
func (s *Service) FindByIdentityAndPassword(ctx context.Context, identity, password string) (*Account, error) {
	identity = strings.ToLower(strings.TrimSpace(identity))
	if identity == "" || password == "" {
		return nil, ErrIdentityPasswordRequired
	}
	b, err := s.Rdb.Get(ctx, accountPrefix+identity).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrInvalidIdentity
	}
	if err != nil {
		return nil, err
	}
	var acc Account
	if err := json.Unmarshal(b, &acc); err != nil {
		return nil, err
	}
	if acc.PasswordHash == "" {
		return nil, ErrInvalidIdentity
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &acc, nil
}

// VerifyUser validates the session user and returns the shape for /me.
func VerifyUser(sessionUser interface{}) (*SessionUserShape, error) {
	if sessionUser == nil {
		return nil, ErrNotAuthenticated
	}
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	identity, _ := m["identity"].(string)
	if identity == "" {
		return nil, ErrNotAuthenticated
	}
	return &SessionUserShape{
		Identity: identity,
		Fullname: str(m["fullname"]),
		Email:    str(m["email"]),
	}, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
