package users

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/paintdesk-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/paintdesk-backend/pkg/errors"
	"github.com/angelmondragon/paintdesk-backend/pkg/logger"
	"github.com/angelmondragon/paintdesk-backend/pkg/security"
)

const generatedPasswordLength = 24

// Service resolves the single implicit operator the system runs as.
type Service interface {
	Current(ctx context.Context) (*UserDTO, error)
	EnsureDefault(ctx context.Context) (*UserDTO, error)
}

type service struct {
	repo   Repository
	hasher *security.Hasher
	cfg    config.DefaultUserConfig
	logg   *logger.Logger
}

// NewService wires the users dependencies.
func NewService(repo Repository, hasher *security.Hasher, cfg config.DefaultUserConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if hasher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "password hasher required")
	}
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "default username required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	cfg.Username = strings.TrimSpace(cfg.Username)
	return &service{repo: repo, hasher: hasher, cfg: cfg, logg: logg}, nil
}

func (s *service) Current(ctx context.Context) (*UserDTO, error) {
	user, err := s.repo.FindByUsername(ctx, s.cfg.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "current user not provisioned")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load current user")
	}
	return FromModel(user), nil
}

// EnsureDefault seeds the configured operator if it does not exist yet. With
// no configured password a random one is hashed, leaving the account unusable
// for password logins.
func (s *service) EnsureDefault(ctx context.Context) (*UserDTO, error) {
	existing, err := s.repo.FindByUsername(ctx, s.cfg.Username)
	if err == nil {
		return FromModel(existing), nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup default user")
	}

	password := s.cfg.Password
	if password == "" {
		password, err = security.RandomPassword(generatedPasswordLength)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate default password")
		}
		s.logg.Warn(ctx, "no default user password configured, seeding a random one")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash default password")
	}

	created, err := s.repo.Create(ctx, CreateUserDTO{
		Username:     s.cfg.Username,
		PasswordHash: hash,
		FullName:     s.cfg.FullName,
		Email:        s.cfg.Email,
		Department:   s.cfg.Department,
	})
	if errors.Is(err, ErrUsernameTaken) {
		// Another process seeded it between the lookup and the insert.
		return s.Current(ctx)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create default user")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":  created.ID,
		"username": created.Username,
	}), "default user seeded")
	return FromModel(created), nil
}
