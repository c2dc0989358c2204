package docstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed schema.sql
var schemaSQL string

// DBTX cobre pgxpool.Pool e pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persiste coleções na tabela documents (JSONB).
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore cria store sobre pool ou transação.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// WithTx devolve store ligado à transação informada.
func (s *PostgresStore) WithTx(tx pgx.Tx) *PostgresStore {
	return &PostgresStore{db: tx}
}

// EnsureSchema cria tabela e índices caso não existam.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("docstore: schema: %w", err)
	}
	return nil
}

// Get busca documento por coleção e id.
func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var fields map[string]any
	err := s.db.QueryRow(ctx, `
        SELECT fields
        FROM documents
        WHERE collection = $1 AND id = $2
    `, collection, id).Scan(&fields)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return Document{ID: id, Fields: fields}, nil
}

// Query executa leitura ordenada por (campo, id) com filtros de igualdade.
func (s *PostgresStore) Query(ctx context.Context, q Query) ([]Document, error) {
	query, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			doc    Document
			fields map[string]any
		)
		if err := rows.Scan(&doc.ID, &fields); err != nil {
			return nil, err
		}
		if fields == nil {
			fields = map[string]any{}
		}
		doc.Fields = fields
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// Create insere documento com id uuid.
func (s *PostgresStore) Create(ctx context.Context, collection string, fields map[string]any) (Document, error) {
	id := uuid.NewString()
	if fields == nil {
		fields = map[string]any{}
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO documents (collection, id, fields)
        VALUES ($1, $2, $3)
    `, collection, id, fields)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Fields: fields}, nil
}

// Set grava ou substitui documento.
func (s *PostgresStore) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	if fields == nil {
		fields = map[string]any{}
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO documents (collection, id, fields)
        VALUES ($1, $2, $3)
        ON CONFLICT (collection, id) DO UPDATE
        SET fields = EXCLUDED.fields, updated_at = now()
    `, collection, id, fields)
	return err
}

// Insert grava o documento apenas se (collection, id) estiver livre.
func (s *PostgresStore) Insert(ctx context.Context, collection, id string, fields map[string]any) error {
	if fields == nil {
		fields = map[string]any{}
	}
	cmd, err := s.db.Exec(ctx, `
        INSERT INTO documents (collection, id, fields)
        VALUES ($1, $2, $3)
        ON CONFLICT (collection, id) DO NOTHING
    `, collection, id, fields)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Update mescla campos no documento existente.
func (s *PostgresStore) Update(ctx context.Context, collection, id string, patch map[string]any) error {
	cmd, err := s.db.Exec(ctx, `
        UPDATE documents
        SET fields = fields || $3::jsonb, updated_at = now()
        WHERE collection = $1 AND id = $2
    `, collection, id, patch)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete remove documento.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	cmd, err := s.db.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func buildQuery(q Query) (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	var (
		clauses = []string{"collection = $1"}
		args    = []any{q.Collection}
		idx     = 2
	)

	for _, f := range q.Filters {
		clauses = append(clauses, fmt.Sprintf("fields->>$%d::text = $%d::text", idx, idx+1))
		args = append(args, f.Field, Text(f.Value))
		idx += 2
	}

	dir := "ASC"
	cmp := ">"
	if q.Direction == Descending {
		dir = "DESC"
		cmp = "<"
	}

	sortKey := `''`
	if q.OrderBy != "" {
		sortKey = fmt.Sprintf(`COALESCE(fields->>$%d::text, '') COLLATE "C"`, idx)
		args = append(args, q.OrderBy)
		idx++
	}

	if q.StartAfter != nil {
		clauses = append(clauses, fmt.Sprintf(`(%s, id COLLATE "C") %s ($%d::text, $%d::text)`, sortKey, cmp, idx, idx+1))
		args = append(args, q.StartAfter.Value, q.StartAfter.ID)
		idx += 2
	}

	query := `SELECT id, fields FROM documents WHERE ` + strings.Join(clauses, " AND ")
	if q.OrderBy != "" {
		query += fmt.Sprintf(` ORDER BY %s %s, id COLLATE "C" %s`, sortKey, dir, dir)
	} else {
		query += fmt.Sprintf(` ORDER BY id COLLATE "C" %s`, dir)
	}

	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, q.Limit)
	}

	return query, args, nil
}
