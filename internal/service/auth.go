package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/school_bakery/internal/events"
	"github.com/Skotchmaster/school_bakery/internal/models"
	"github.com/Skotchmaster/school_bakery/internal/repo"
	"github.com/Skotchmaster/school_bakery/internal/transport"
	"github.com/Skotchmaster/school_bakery/internal/validation"
	"github.com/Skotchmaster/school_bakery/pkg/hash"
	"github.com/Skotchmaster/school_bakery/pkg/logging"
	"github.com/Skotchmaster/school_bakery/pkg/tokens"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

// dummyHash keeps login timing the same for unknown usernames.
var dummyHash = sync.OnceValue(func() string {
	h, _ := hash.HashPassword("unknown-user")
	return h
})

type AuthService struct {
	Repo     *repo.GormRepo
	Secret   []byte
	TokenTTL time.Duration
	Events   events.Publisher
	Now      func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *AuthService) ttl() time.Duration {
	if s.TokenTTL > 0 {
		return s.TokenTTL
	}
	return DefaultTokenTTL
}

func (s *AuthService) issue(u *models.User) (string, error) {
	return tokens.Issue(s.Secret, tokens.Identity{
		UserID:   u.ID,
		Username: u.Username,
		Role:     string(u.Role),
	}, s.now(), s.ttl())
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (string, *models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validation.Struct(req); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	user, err := s.createUser(ctx, req, models.RoleStudent)
	if err != nil {
		return "", nil, err
	}

	token, err := s.issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	if s.Events != nil {
		ev := events.UserEvent{Type: events.UserRegistered, UserID: user.ID.String(), Username: user.Username, At: s.now().UTC()}
		if err := s.Events.PublishEvent(ctx, events.TopicUsers, user.ID.String(), ev); err != nil {
			logging.FromContext(ctx).Warn("publish_event_failed", "topic", events.TopicUsers, "error", err)
		}
	}
	return token, user, nil
}

func (s *AuthService) createUser(ctx context.Context, req transport.RegisterRequest, role models.Role) (*models.User, error) {
	exists, err := s.Repo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateUsername
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		FullName:     req.FullName,
		Classroom:    req.Classroom,
		Contact:      req.Contact,
		Role:         role,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (string, *models.User, error) {
	if err := validation.Struct(req); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	user, err := s.Repo.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash.CheckPassword(dummyHash(), req.Password)
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, user, nil
}

// Authenticate wraps token failures so both the service sentinel and the
// tokens error can be matched.
func (s *AuthService) Authenticate(_ context.Context, token string) (tokens.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return tokens.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, tokens.ErrInvalidToken)
	}
	claims, err := tokens.ClaimsFromToken(token, s.Secret)
	if err != nil {
		if errors.Is(err, tokens.ErrBadSignature) {
			return tokens.Identity{}, fmt.Errorf("%w: %w", ErrForbidden, err)
		}
		return tokens.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	id, err := claims.Identity()
	if err != nil {
		return tokens.Identity{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return id, nil
}

func (s *AuthService) RequireRole(id tokens.Identity, role models.Role) error {
	if models.Role(id.Role) != role {
		return fmt.Errorf("%w: role %s required", ErrForbidden, role)
	}
	return nil
}

func (s *AuthService) Me(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates the admin account if it does not exist yet. It reports
// whether a user was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password, fullName string) (bool, error) {
	req := transport.RegisterRequest{Username: strings.TrimSpace(username), Password: password, FullName: fullName}
	if err := validation.Struct(req); err != nil {
		return false, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if _, err := s.createUser(ctx, req, models.RoleAdmin); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
