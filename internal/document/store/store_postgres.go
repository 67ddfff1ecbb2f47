package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"docregistry/internal/document/models"
	id "docregistry/pkg/domain"
	"docregistry/pkg/platform/sentinel"
)

const documentColumns = `id, title, doc_type, owner_name, owner_id, content_id, tx_ref, registry_ref, registry_id, status, created_at`

// PostgresStore persists documents in PostgreSQL. owner_id carries no foreign key.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed document store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return fmt.Errorf("document is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		uuid.UUID(doc.ID),
		doc.Title,
		doc.Type,
		doc.OwnerName,
		nullOwner(doc.OwnerID),
		nullString(doc.ContentID),
		nullString(doc.TxRef),
		nullString(doc.RegistryRef),
		nullInt64(doc.RegistryID),
		string(doc.Status),
		doc.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("document %s: %w", doc.ID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, uuid.UUID(docID))
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Document, error) {
	return s.list(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY created_at, id`)
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.AccountID) ([]*models.Document, error) {
	return s.list(ctx, `SELECT `+documentColumns+` FROM documents WHERE owner_id = $1 ORDER BY created_at, id`, uuid.UUID(owner))
}

// UpdateStatus is a compare-and-set on the status column.
func (s *PostgresStore) UpdateStatus(ctx context.Context, docID id.DocumentID, from, to models.Status) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE documents SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING `+documentColumns,
		uuid.UUID(docID), string(from), string(to),
	)
	doc, err := scanDocument(row)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update document status: %w", err)
	}

	if _, err := s.FindByID(ctx, docID); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("document is no longer %s: %w", from, sentinel.ErrInvalidState)
}

// FindByIdentifier resolves record id, then content id, then transaction reference,
// oldest first within a field, in a single query.
func (s *PostgresStore) FindByIdentifier(ctx context.Context, identifier string) (*models.Document, error) {
	if identifier == "" {
		return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
	}
	var recordID uuid.NullUUID
	if parsed, err := uuid.Parse(identifier); err == nil {
		recordID = uuid.NullUUID{UUID: parsed, Valid: true}
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE id = $2 OR content_id = $1 OR tx_ref = $1
		ORDER BY
			CASE WHEN id = $2 THEN 0 WHEN content_id = $1 THEN 1 ELSE 2 END,
			created_at, id
		LIMIT 1
	`, identifier, recordID)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find document by identifier: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		docID       uuid.UUID
		ownerID     uuid.NullUUID
		contentID   sql.NullString
		txRef       sql.NullString
		registryRef sql.NullString
		registryID  sql.NullInt64
		status      string
		createdAt   time.Time
		doc         models.Document
	)
	if err := row.Scan(&docID, &doc.Title, &doc.Type, &doc.OwnerName, &ownerID,
		&contentID, &txRef, &registryRef, &registryID, &status, &createdAt); err != nil {
		return nil, err
	}

	doc.ID = id.DocumentID(docID)
	if ownerID.Valid {
		owner := id.AccountID(ownerID.UUID)
		doc.OwnerID = &owner
	}
	doc.ContentID = contentID.String
	doc.TxRef = txRef.String
	doc.RegistryRef = registryRef.String
	if registryID.Valid {
		v := registryID.Int64
		doc.RegistryID = &v
	}
	doc.Status = models.Status(status)
	doc.CreatedAt = createdAt.UTC()
	return &doc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullOwner(owner *id.AccountID) uuid.NullUUID {
	if owner == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*owner), Valid: true}
}
