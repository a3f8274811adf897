package applicant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"irgate/pkg/platform/sentinel"
)

// PostgresStore persists applicant records in PostgreSQL.
// This store is pure I/O; lifecycle rules live in the services that call it.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed applicant store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema creates the applicants table when it does not exist yet.
const Schema = `
CREATE TABLE IF NOT EXISTS applicants (
	id                 TEXT PRIMARY KEY,
	full_name          TEXT NOT NULL DEFAULT '',
	email              TEXT NOT NULL,
	phone_number       TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'PENDING',
	is_pre_verified    BOOLEAN NOT NULL DEFAULT FALSE,
	workflow_stage     TEXT NOT NULL DEFAULT '',
	account_status     TEXT NOT NULL DEFAULT '',
	system_status      TEXT NOT NULL DEFAULT '',
	registration_id    TEXT NOT NULL DEFAULT '',
	locked_until       TIMESTAMPTZ,
	email_generated_at TIMESTAMPTZ,
	email_sent_at      TIMESTAMPTZ,
	email_sent_count   INTEGER NOT NULL DEFAULT 0,
	email_opened_at    TIMESTAMPTZ,
	email_opened_count INTEGER NOT NULL DEFAULT 0,
	link_clicked_at    TIMESTAMPTZ,
	link_clicked_count INTEGER NOT NULL DEFAULT 0,
	account_claimed_at TIMESTAMPTZ,
	submitted_at       TIMESTAMPTZ NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS applicants_email_norm_idx ON applicants (lower(btrim(email)));
CREATE INDEX IF NOT EXISTS applicants_submitted_at_idx ON applicants (submitted_at DESC);
`

// EnsureSchema creates the backing table and indexes.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure applicants schema: %w", err)
	}
	return nil
}

const recordColumns = `
	id, full_name, email, phone_number, status, is_pre_verified,
	workflow_stage, account_status, system_status, registration_id,
	locked_until, email_generated_at, email_sent_at, email_sent_count,
	email_opened_at, email_opened_count, link_clicked_at, link_clicked_count,
	account_claimed_at, submitted_at, created_at, updated_at`

func (s *PostgresStore) GetByID(ctx context.Context, id string) (Record, error) {
	query := `SELECT` + recordColumns + ` FROM applicants WHERE id = $1`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("get applicant: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (Record, error) {
	query := `SELECT` + recordColumns + ` FROM applicants WHERE lower(btrim(email)) = $1`
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("get applicant by email: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Query(ctx context.Context, field Field, value string) ([]Record, error) {
	var predicate string
	switch field {
	case FieldEmail:
		predicate = `lower(btrim(email)) = $1`
	case FieldPhone:
		predicate = `regexp_replace(phone_number, '[^0-9+]', '', 'g') = $1`
	case FieldFullName:
		predicate = `lower(regexp_replace(btrim(full_name), '\s+', ' ', 'g')) = $1`
	default:
		return nil, fmt.Errorf("query applicants: unsupported field %q", field)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT`+recordColumns+` FROM applicants WHERE `+predicate, value)
	if err != nil {
		return nil, fmt.Errorf("query applicants by %s: %w", field, err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *PostgresStore) Create(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = rec.CreatedAt
	}
	rec.UpdatedAt = rec.CreatedAt

	query := `
		INSERT INTO applicants (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.FullName, rec.Email, rec.PhoneNumber, rec.Status, rec.IsPreVerified,
		rec.WorkflowStage, rec.AccountStatus, rec.SystemStatus, rec.RegistrationID,
		rec.LockedUntil, rec.EmailGeneratedAt, rec.EmailSentAt, rec.EmailSentCount,
		rec.EmailOpenedAt, rec.EmailOpenedCount, rec.LinkClickedAt, rec.LinkClickedCount,
		rec.AccountClaimedAt, rec.SubmittedAt, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "applicants_pkey") {
			return Record{}, sentinel.ErrConflict
		}
		return Record{}, fmt.Errorf("create applicant: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, patch Patch) (Record, error) {
	// Build the SET list from present fields only, mirroring the document
	// store contract of stripping undefined values before write.
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.FullName != nil {
		add("full_name", *patch.FullName)
	}
	if patch.PhoneNumber != nil {
		add("phone_number", *patch.PhoneNumber)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.WorkflowStage != nil {
		add("workflow_stage", *patch.WorkflowStage)
	}
	if patch.AccountStatus != nil {
		add("account_status", *patch.AccountStatus)
	}
	if patch.SystemStatus != nil {
		add("system_status", *patch.SystemStatus)
	}
	if patch.RegistrationID != nil {
		add("registration_id", *patch.RegistrationID)
	}
	if patch.LockedUntil != nil {
		add("locked_until", *patch.LockedUntil)
	}
	if patch.EmailGeneratedAt != nil {
		add("email_generated_at", *patch.EmailGeneratedAt)
	}
	if patch.EmailSentAt != nil {
		add("email_sent_at", *patch.EmailSentAt)
	}
	if patch.EmailSentCount != nil {
		add("email_sent_count", *patch.EmailSentCount)
	}
	if patch.AccountClaimedAt != nil {
		add("account_claimed_at", *patch.AccountClaimedAt)
	}

	query := `UPDATE applicants SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING` + recordColumns
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("update applicant: %w", err)
	}
	return rec, nil
}

// RecordEngagement uses a single atomic UPDATE so concurrent duplicate
// tracking hits cannot race a read-modify-write: the counter always
// increments and COALESCE keeps the first timestamp.
func (s *PostgresStore) RecordEngagement(ctx context.Context, id string, kind EngagementKind, at time.Time) (Record, error) {
	var query string
	switch kind {
	case EngagementOpen:
		query = `
			UPDATE applicants SET
				email_opened_count = email_opened_count + 1,
				email_opened_at = COALESCE(email_opened_at, $2),
				updated_at = $2
			WHERE id = $1
			RETURNING` + recordColumns
	case EngagementClick:
		query = `
			UPDATE applicants SET
				link_clicked_count = link_clicked_count + 1,
				link_clicked_at = COALESCE(link_clicked_at, $2),
				updated_at = $2
			WHERE id = $1
			RETURNING` + recordColumns
	default:
		return Record{}, sentinel.ErrInvalidState
	}

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, sentinel.ErrNotFound
		}
		return Record{}, fmt.Errorf("record engagement: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListBySubmission(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT`+recordColumns+` FROM applicants ORDER BY submitted_at DESC LIMIT $1`, limit)
	if err != nil {
		// Degrade to unordered results when the ordering path is unavailable.
		rows, err = s.db.QueryContext(ctx,
			`SELECT`+recordColumns+` FROM applicants LIMIT $1`, limit)
		if err != nil {
			return nil, fmt.Errorf("list applicants: %w", err)
		}
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *PostgresStore) ListExpirable(ctx context.Context, cutoff time.Time) ([]Record, error) {
	query := `
		SELECT` + recordColumns + `
		FROM applicants
		WHERE is_pre_verified
		  AND workflow_stage NOT IN ($1, $2)
		  AND COALESCE(email_sent_at, created_at) < $3
	`
	rows, err := s.db.QueryContext(ctx, query, StageAccountClaimed, StageInviteExpired, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expirable applicants: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.FullName, &rec.Email, &rec.PhoneNumber, &rec.Status, &rec.IsPreVerified,
		&rec.WorkflowStage, &rec.AccountStatus, &rec.SystemStatus, &rec.RegistrationID,
		&rec.LockedUntil, &rec.EmailGeneratedAt, &rec.EmailSentAt, &rec.EmailSentCount,
		&rec.EmailOpenedAt, &rec.EmailOpenedCount, &rec.LinkClickedAt, &rec.LinkClickedCount,
		&rec.AccountClaimedAt, &rec.SubmittedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan applicant: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applicants: %w", err)
	}
	return out, nil
}
