package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
	"github.com/commission-dashboard/sales-api/internal/core/ports"
	"github.com/commission-dashboard/sales-api/internal/pkg/validation"
)

// registerDraft mirrors RegisterInput with the rules registration enforces.
type registerDraft struct {
	Username  string `json:"username" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,max=128"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

type loginDraft struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthService implements registration, login and token resolution.
type AuthService struct {
	users    ports.UserRepository
	tokens   ports.TokenRepository
	issuer   ports.TokenIssuer
	validate *validation.Validator
	locker   ports.Locker
	tokenTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewAuthService builds the service. A zero tokenTTL keeps tokens valid until logout.
func NewAuthService(
	users ports.UserRepository,
	tokens ports.TokenRepository,
	issuer ports.TokenIssuer,
	validate *validation.Validator,
	tokenTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		issuer:   issuer,
		validate: validate,
		tokenTTL: tokenTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithLocker serialises token creation per user through l.
func (s *AuthService) WithLocker(l ports.Locker) *AuthService {
	s.locker = l
	return s
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	draft := registerDraft{
		Username:  input.Username,
		Password:  input.Password,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	}
	if err := s.validate.Validate(&draft); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByUsername(ctx, input.Username); err == nil {
		return nil, usernameTaken()
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	created, err := s.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Username:     input.Username,
		Email:        input.Email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, usernameTaken()
		}
		return nil, err
	}

	s.logger.Info().Str("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

func usernameTaken() error {
	return domain.FieldError("username", "A user with that username already exists.")
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if err := s.validate.Validate(&loginDraft{Username: username, Password: password}); err != nil {
		return "", nil, err
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	key, err := s.tokenFor(ctx, user)
	if err != nil {
		return "", nil, err
	}
	return key, user, nil
}

// tokenFor returns the user's live token, creating one when there is none or
// the previous one expired.
func (s *AuthService) tokenFor(ctx context.Context, user *domain.User) (string, error) {
	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, "token:"+user.ID)
		if err != nil {
			return "", fmt.Errorf("lock token: %w", err)
		}
		defer unlock()
	}

	existing, err := s.tokens.FindByUser(ctx, user.ID)
	switch {
	case err == nil:
		if !existing.Expired(s.tokenTTL, s.now()) {
			return existing.Key, nil
		}
		if err := s.tokens.Delete(ctx, existing.Key); err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
			return "", err
		}
		s.logger.Debug().Str("user_id", user.ID).Msg("expired token rotated")
	case !errors.Is(err, domain.ErrTokenNotFound):
		return "", err
	}

	key, err := s.issuer.Issue(user)
	if err != nil {
		return "", err
	}

	token := &domain.Token{Key: key, UserID: user.ID, CreatedAt: s.now()}
	if err := s.tokens.Create(ctx, token); err != nil {
		if !errors.Is(err, domain.ErrTokenExists) {
			return "", err
		}
		// another login for the same user won the race
		winner, ferr := s.tokens.FindByUser(ctx, user.ID)
		if ferr != nil {
			return "", ferr
		}
		return winner.Key, nil
	}
	return key, nil
}

func (s *AuthService) Authenticate(ctx context.Context, key string) (*domain.User, error) {
	if key == "" || s.issuer.Check(key) != nil {
		return nil, domain.ErrUnauthenticated
	}

	token, err := s.tokens.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}

	if token.Expired(s.tokenTTL, s.now()) {
		if err := s.tokens.Delete(ctx, token.Key); err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
			s.logger.Warn().Err(err).Str("user_id", token.UserID).Msg("failed to drop expired token")
		}
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes key. The next login issues a fresh token.
func (s *AuthService) Logout(ctx context.Context, key string) error {
	if err := s.tokens.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrTokenNotFound) {
		return err
	}
	return nil
}
