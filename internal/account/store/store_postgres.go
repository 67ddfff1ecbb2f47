package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"docregistry/internal/account/models"
	id "docregistry/pkg/domain"
	"docregistry/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

const accountColumns = `id, name, email, password_hash, role, address, created_at`

// PostgresStore persists accounts in PostgreSQL. Email uniqueness is enforced by the
// idx_accounts_email_lower index.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, account *models.Account) error {
	if account == nil {
		return fmt.Errorf("account is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uuid.UUID(account.ID),
		account.Name,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.Address,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account already exists: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE LOWER(email) = $1`, models.NormalizeEmail(email))
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		accountID uuid.UUID
		role      string
		createdAt time.Time
		account   models.Account
	)
	if err := row.Scan(&accountID, &account.Name, &account.Email, &account.PasswordHash, &role, &account.Address, &createdAt); err != nil {
		return nil, err
	}
	account.ID = id.AccountID(accountID)
	account.Role = id.Role(role)
	account.CreatedAt = createdAt.UTC()
	return &account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
