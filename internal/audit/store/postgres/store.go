package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"govportal/internal/audit"
	pgplatform "govportal/internal/platform/postgres"
	"govportal/pkg/domain"
	txcontext "govportal/pkg/platform/tx"
)

// Store persists audit records in audit_records. Rows are insert-only; a
// trigger in the schema rejects UPDATE and DELETE.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts rec, joining the transaction in ctx when there is one.
func (s *Store) Append(ctx context.Context, rec *audit.Record) error {
	detail, err := json.Marshal(rec.Detail)
	if err != nil {
		return fmt.Errorf("encode audit detail: %w", err)
	}
	if rec.Detail == nil {
		detail = []byte("{}")
	}

	const query = `
		INSERT INTO audit_records (actor_id, action, sector_id, occurred_at, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id int64
	err = txcontext.Exec(ctx, s.db).QueryRowContext(ctx, query,
		nullableID(rec.ActorID),
		string(rec.Action),
		nullableSector(rec.SectorID),
		rec.Timestamp,
		detail,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", pgplatform.ClassifyError(err))
	}
	rec.ID = domain.RecordID(id)
	return nil
}

// Query returns records matching f, newest first, with actor and sector joins.
func (s *Store) Query(ctx context.Context, f audit.Filter) ([]audit.Record, error) {
	query, args := buildQuery(f)
	rows, err := txcontext.Exec(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func buildQuery(f audit.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	// Scope first.
	if !f.SectorID.IsZero() {
		add("r.sector_id = $%d", int64(f.SectorID))
	}
	if !f.From.IsZero() {
		add("r.occurred_at >= $%d", f.From)
	}
	if !f.Until.IsZero() {
		add("r.occurred_at < $%d", f.Until)
	}
	if f.ActionLike != "" {
		add(`r.action ILIKE '%%' || $%d || '%%' ESCAPE '\'`, escapeLike(f.ActionLike))
	}
	if !f.ActorID.IsZero() {
		add("r.actor_id = $%d", int64(f.ActorID))
	}

	var b strings.Builder
	b.WriteString(`
		SELECT r.id, r.actor_id, r.action, r.sector_id, r.occurred_at, r.detail,
		       COALESCE(a.name, ''), COALESCE(a.email, ''), COALESCE(s.code, '')
		FROM audit_records r
		LEFT JOIN accounts a ON a.id = r.actor_id
		LEFT JOIN sectors s ON s.id = r.sector_id`)
	if len(where) > 0 {
		b.WriteString("\n\t\tWHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, f.Limit, f.Offset)
	fmt.Fprintf(&b, "\n\t\tORDER BY r.occurred_at DESC, r.id DESC\n\t\tLIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return b.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// CountByActor counts records attributed to an account.
func (s *Store) CountByActor(ctx context.Context, actorID domain.AccountID) (int, error) {
	var n int
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT count(*) FROM audit_records WHERE actor_id = $1`, int64(actorID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count audit records: %w", err)
	}
	return n, nil
}

func scanRecords(rows *sql.Rows) ([]audit.Record, error) {
	records := []audit.Record{}
	for rows.Next() {
		var (
			rec      audit.Record
			id       int64
			actorID  sql.NullInt64
			sectorID sql.NullInt64
			action   string
			detail   []byte
		)
		if err := rows.Scan(&id, &actorID, &action, &sectorID, &rec.Timestamp, &detail,
			&rec.ActorName, &rec.ActorEmail, &rec.SectorCode); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.ID = domain.RecordID(id)
		rec.Action = audit.Action(action)
		if actorID.Valid {
			v := domain.AccountID(actorID.Int64)
			rec.ActorID = &v
		}
		if sectorID.Valid {
			v := domain.SectorID(sectorID.Int64)
			rec.SectorID = &v
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &rec.Detail); err != nil {
				return nil, fmt.Errorf("decode audit detail: %w", err)
			}
		}
		rec.Timestamp = rec.Timestamp.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return records, nil
}

func nullableID(id *domain.AccountID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func nullableSector(id *domain.SectorID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}
