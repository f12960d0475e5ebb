// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Corphon/FunnelCraft/internal/models"
	_ "modernc.org/sqlite"
)

// DBTX is the common interface satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)

// OpenDB opens a SQLite database at path (":memory:" for in-memory), sets
// WAL mode, enables foreign keys and runs migrations.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS phase_records (
		account_id        TEXT PRIMARY KEY,
		author_name       TEXT NOT NULL DEFAULT '',
		funnel_blueprint  TEXT NOT NULL DEFAULT '',
		content_generated INTEGER NOT NULL DEFAULT 0,
		craft_answers     TEXT NOT NULL DEFAULT '[]',
		business_context  TEXT NOT NULL DEFAULT '',
		flags             TEXT NOT NULL DEFAULT '{}',
		updated_at        TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS knowledge_docs (
		id          TEXT PRIMARY KEY,
		account_id  TEXT NOT NULL REFERENCES phase_records(account_id) ON DELETE CASCADE,
		filename    TEXT NOT NULL,
		body        TEXT NOT NULL,
		uploaded_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_knowledge_docs_account ON knowledge_docs(account_id, uploaded_at)`,
}

// Migrate runs all schema migrations. Statements are idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

// SQLiteRecordStore implements RecordStore on SQLite. Knowledge documents
// live in their own table and are replaced together with the record.
type SQLiteRecordStore struct {
	db *sql.DB
}

// NewSQLiteRecordStore opens the database at path.
func NewSQLiteRecordStore(path string) (*SQLiteRecordStore, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteRecordStore{db: db}, nil
}

func (s *SQLiteRecordStore) Get(ctx context.Context, accountID string) (*models.PhaseRecord, error) {
	if err := ValidateAccountID(accountID); err != nil {
		return nil, err
	}
	rec, err := getRecord(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	docs, err := listKnowledgeDocs(ctx, s.db, accountID)
	if err != nil {
		return nil, err
	}
	rec.KnowledgeDocs = docs
	return rec, nil
}

func (s *SQLiteRecordStore) Put(ctx context.Context, rec *models.PhaseRecord) error {
	if err := ValidateAccountID(rec.AccountID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := upsertRecord(ctx, tx, rec); err != nil {
		return err
	}
	if err := replaceKnowledgeDocs(ctx, tx, rec.AccountID, rec.KnowledgeDocs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing account %s: %w", rec.AccountID, err)
	}
	committed = true
	return nil
}

func (s *SQLiteRecordStore) Close() error {
	return s.db.Close()
}

func getRecord(ctx context.Context, q DBTX, accountID string) (*models.PhaseRecord, error) {
	row := q.QueryRowContext(ctx, `SELECT account_id, author_name, funnel_blueprint,
		content_generated, craft_answers, business_context, flags, updated_at
		FROM phase_records WHERE account_id = ?`, accountID)

	var (
		rec       models.PhaseRecord
		generated int
		answers   string
		flags     string
		updatedAt string
	)
	err := row.Scan(&rec.AccountID, &rec.AuthorName, &rec.FunnelBlueprint,
		&generated, &answers, &rec.BusinessContext, &flags, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %s: %w", accountID, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning account %s: %w", accountID, err)
	}

	rec.ContentGenerated = generated != 0
	if err := json.Unmarshal([]byte(answers), &rec.CraftAnswers); err != nil {
		return nil, fmt.Errorf("decoding craft answers: %w", err)
	}
	if err := json.Unmarshal([]byte(flags), &rec.Flags); err != nil {
		return nil, fmt.Errorf("decoding flags: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &rec, nil
}

func upsertRecord(ctx context.Context, q DBTX, rec *models.PhaseRecord) error {
	answers, err := json.Marshal(nonNil(rec.CraftAnswers))
	if err != nil {
		return fmt.Errorf("encoding craft answers: %w", err)
	}
	flags, err := json.Marshal(rec.Flags)
	if err != nil {
		return fmt.Errorf("encoding flags: %w", err)
	}
	generated := 0
	if rec.ContentGenerated {
		generated = 1
	}

	_, err = q.ExecContext(ctx, `INSERT INTO phase_records (account_id, author_name,
		funnel_blueprint, content_generated, craft_answers, business_context, flags, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id) DO UPDATE SET
			author_name = excluded.author_name,
			funnel_blueprint = excluded.funnel_blueprint,
			content_generated = excluded.content_generated,
			craft_answers = excluded.craft_answers,
			business_context = excluded.business_context,
			flags = excluded.flags,
			updated_at = excluded.updated_at`,
		rec.AccountID, rec.AuthorName, rec.FunnelBlueprint, generated,
		string(answers), rec.BusinessContext, string(flags),
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting account %s: %w", rec.AccountID, err)
	}
	return nil
}

func listKnowledgeDocs(ctx context.Context, q DBTX, accountID string) ([]models.KnowledgeDoc, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, filename, body, uploaded_at
		FROM knowledge_docs WHERE account_id = ? ORDER BY uploaded_at, id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying knowledge docs: %w", err)
	}
	defer rows.Close()

	var docs []models.KnowledgeDoc
	for rows.Next() {
		var (
			d  models.KnowledgeDoc
			at string
		)
		if err := rows.Scan(&d.ID, &d.Filename, &d.Text, &at); err != nil {
			return nil, fmt.Errorf("scanning knowledge doc: %w", err)
		}
		if d.UploadedAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parsing uploaded_at: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func replaceKnowledgeDocs(ctx context.Context, q DBTX, accountID string, docs []models.KnowledgeDoc) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM knowledge_docs WHERE account_id = ?`, accountID); err != nil {
		return fmt.Errorf("clearing knowledge docs: %w", err)
	}
	for _, d := range docs {
		_, err := q.ExecContext(ctx, `INSERT INTO knowledge_docs (id, account_id, filename, body, uploaded_at)
			VALUES (?, ?, ?, ?, ?)`,
			d.ID, accountID, d.Filename, d.Text, d.UploadedAt.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("inserting knowledge doc %s: %w", d.ID, err)
		}
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
