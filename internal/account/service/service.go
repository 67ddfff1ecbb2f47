package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"docregistry/internal/account/metrics"
	"docregistry/internal/account/models"
	id "docregistry/pkg/domain"
	dErrors "docregistry/pkg/domain-errors"
	"docregistry/pkg/platform/audit"
	"docregistry/pkg/platform/sentinel"
	"docregistry/pkg/requestcontext"
	"docregistry/pkg/secrets"
)

// AccountStore defines the persistence interface for accounts.
// Error Contract: Find methods return sentinel.ErrNotFound when the account doesn't exist;
// Create returns sentinel.ErrAlreadyUsed when the email is taken.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
}

type TokenIssuer interface {
	IssueToken(ctx context.Context, principal id.Principal) (string, error)
}

type Service struct {
	accounts       AccountStore
	tokens         TokenIssuer
	logger         *slog.Logger
	auditPublisher audit.Emitter
	auditLogger    *audit.Logger
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(accounts AccountStore, tokens TokenIssuer, opts ...Option) *Service {
	svc := &Service{
		accounts: accounts,
		tokens:   tokens,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	svc.auditLogger = audit.NewLogger(svc.logger, svc.auditPublisher)
	return svc
}

// Register creates an account. The email pre-check only short-circuits the common case;
// the store's uniqueness guarantee decides concurrent registrations.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error) {
	role := id.Role(req.Role)
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "role must be one of [citizen institution]")
	}

	email := models.NormalizeEmail(req.Email)
	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		s.metrics.IncDuplicateEmail()
		return nil, dErrors.New(dErrors.CodeDuplicateEmail, "email already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up account")
	}

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	address, err := secrets.GenerateAddress()
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		ID:           id.NewAccountID(),
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Address:      address,
		CreatedAt:    requestcontext.Now(ctx).UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			s.metrics.IncDuplicateEmail()
			return nil, dErrors.New(dErrors.CodeDuplicateEmail, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save account")
	}

	s.metrics.IncRegistered(role.String())
	s.auditLogger.Record(ctx, audit.Event{
		AccountID: account.ID,
		Role:      role.String(),
		Action:    string(audit.EventAccountRegistered),
	})
	return account, nil
}

// Login verifies the password and issues a bearer token. Attempts are not rate limited.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	start := time.Now()

	account, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.loginFailed(ctx, id.AccountID{}, "unknown_email", start)
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up account")
	}

	if err := secrets.Verify(req.Password, account.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidPassword) {
			s.loginFailed(ctx, account.ID, "invalid_password", start)
		}
		return nil, err
	}

	token, err := s.tokens.IssueToken(ctx, account.Principal())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.metrics.ObserveLogin("success", time.Since(start).Seconds())
	s.auditLogger.Record(ctx, audit.Event{
		AccountID: account.ID,
		Role:      account.Role.String(),
		Action:    string(audit.EventLoginSucceeded),
	})
	return &models.LoginResult{Token: token, User: account.Public()}, nil
}

func (s *Service) loginFailed(ctx context.Context, accountID id.AccountID, reason string, start time.Time) {
	s.metrics.ObserveLogin(reason, time.Since(start).Seconds())
	s.auditLogger.Record(ctx, audit.Event{
		AccountID: accountID,
		Action:    string(audit.EventLoginFailed),
		Decision:  "denied",
		Reason:    reason,
	})
}
