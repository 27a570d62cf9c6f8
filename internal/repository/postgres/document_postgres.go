package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"docgen/internal/model"
	"docgen/internal/repository"
)

const recordColumns = `id, document_name, document_type, template_type, generated_by, metadata, storage_path, created_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (*model.DocumentRecord, error) {
	var (
		rec         model.DocumentRecord
		meta        []byte
		storagePath sql.NullString
	)
	if err := s.Scan(
		&rec.ID,
		&rec.DocumentName,
		&rec.DocumentType,
		&rec.TemplateType,
		&rec.GeneratedBy,
		&meta,
		&storagePath,
		&rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	fields, err := decodeMetadata(meta)
	if err != nil {
		return nil, fmt.Errorf("decode metadata of %s: %w", rec.ID, err)
	}
	rec.Metadata = fields
	rec.StoragePath = storagePath.String
	return &rec, nil
}

func encodeMetadata(f model.Fields) (string, error) {
	if f == nil {
		return "{}", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeMetadata(b []byte) (model.Fields, error) {
	fields := model.Fields{}
	if len(b) == 0 {
		return fields, nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts a new record row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, rec *model.DocumentRecord) (*model.DocumentRecord, error) {
	meta, err := encodeMetadata(rec.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	const q = `
		INSERT INTO document_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + recordColumns
	row := r.db.QueryRowContext(ctx, q,
		rec.ID,
		rec.DocumentName,
		string(rec.DocumentType),
		string(rec.TemplateType),
		rec.GeneratedBy,
		meta,
		nullable(rec.StoragePath),
		rec.CreatedAt,
	)
	return scanRecord(row)
}

// FindByID fetches a single record by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.DocumentRecord, error) {
	const q = `SELECT ` + recordColumns + ` FROM document_records WHERE id = $1`
	return scanRecord(r.db.QueryRowContext(ctx, q, id))
}

func buildWhere(f repository.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if f.DocumentType != "" {
		add("document_type", string(f.DocumentType))
	}
	if f.TemplateType != "" {
		add("template_type", string(f.TemplateType))
	}
	if f.GeneratedBy != "" {
		add("generated_by", f.GeneratedBy)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns records newest first with optional LIMIT/OFFSET and a total count.
func (r *DocumentPostgres) List(ctx context.Context, filter repository.ListFilter, pq repository.PageQuery) (*repository.PageResult[model.DocumentRecord], error) {
	where, args := buildWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM document_records`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	q := `SELECT ` + recordColumns + ` FROM document_records` + where + ` ORDER BY created_at DESC, id DESC`
	if pq.Limit > 0 {
		args = append(args, pq.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if pq.Offset > 0 {
		args = append(args, pq.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.DocumentRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.DocumentRecord]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a record by ID and reports sql.ErrNoRows if it did not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM document_records WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
