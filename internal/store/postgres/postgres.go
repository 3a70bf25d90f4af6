package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/keywordpulse/keywordpulse/internal/model"
	"github.com/keywordpulse/keywordpulse/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// uniqueViolation is the PostgreSQL SQLSTATE for unique-constraint errors.
const uniqueViolation = "23505"

// Open opens a PostgreSQL connection using the pgx stdlib driver and
// verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Users() store.Users     { return &users{db: s.db} }
func (s *pgStore) Queries() store.Queries { return &queries{db: s.db} }
func (s *pgStore) Cache() store.Cache     { return &cache{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) GetOrCreate(ctx context.Context, email string) (*model.User, error) {
	if existing, err := u.getByEmail(ctx, email); err == nil {
		return existing, nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	out := &model.User{ID: uuid.New().String(), Email: email, SubscriptionTier: model.TierFree}
	row := u.db.QueryRowContext(ctx, `
        INSERT INTO users (id, email, query_count, subscription_tier)
        VALUES ($1,$2,0,$3)
        RETURNING created_at
    `, out.ID, email, out.SubscriptionTier)
	if err := row.Scan(&out.CreatedAt); err != nil {
		// A concurrent request created the row first; adopt it.
		if isUniqueViolation(err) {
			return u.getByEmail(ctx, email)
		}
		return nil, err
	}
	return out, nil
}

func (u *users) getByEmail(ctx context.Context, email string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `
        SELECT id, email, query_count, subscription_tier, last_query_at, created_at
        FROM users WHERE email=$1
    `, email)
	return scanUser(row)
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `
        SELECT id, email, query_count, subscription_tier, last_query_at, created_at
        FROM users WHERE id=$1
    `, userID)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*model.User, error) {
	var out model.User
	var last sql.NullTime
	if err := row.Scan(&out.ID, &out.Email, &out.QueryCount, &out.SubscriptionTier, &last, &out.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if last.Valid {
		t := last.Time
		out.LastQueryAt = &t
	}
	return &out, nil
}

func (u *users) IncrementQueryCount(ctx context.Context, userID string, now time.Time) error {
	res, err := u.db.ExecContext(ctx, `
        UPDATE users SET query_count = query_count + 1, last_query_at = $2 WHERE id = $1
    `, userID, now)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (u *users) ResetQueryCount(ctx context.Context, userID string) error {
	_, err := u.db.ExecContext(ctx, `UPDATE users SET query_count = 0 WHERE id = $1`, userID)
	return err
}

// --- Queries ---

type queries struct{ db *sql.DB }

func (q *queries) Create(ctx context.Context, m *model.KeywordQuery) (*model.KeywordQuery, error) {
	id := m.ID
	if id == "" {
		id = uuid.New().String()
	}
	status := m.Status
	if status == "" {
		status = model.StatusCompleted
	}
	resultsJSON, err := json.Marshal(m.Results)
	if err != nil {
		return nil, err
	}
	var created time.Time
	row := q.db.QueryRowContext(ctx, `
        INSERT INTO queries (id, user_id, keyword, results, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at
    `, id, m.UserID, m.Keyword, resultsJSON, status)
	if err := row.Scan(&created); err != nil {
		return nil, err
	}
	out := *m
	out.ID = id
	out.Status = status
	out.CreatedAt = created
	return &out, nil
}

func (q *queries) ListByUser(ctx context.Context, userID string, limit int) ([]*model.KeywordQuery, error) {
	query := `
        SELECT id, user_id, keyword, results, status, created_at
        FROM queries WHERE user_id=$1 AND status=$2
        ORDER BY created_at DESC`
	args := []interface{}{userID, model.StatusCompleted}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*model.KeywordQuery
	for rows.Next() {
		m, err := scanQuery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (q *queries) GetByID(ctx context.Context, userID, queryID string) (*model.KeywordQuery, error) {
	rows, err := q.db.QueryContext(ctx, `
        SELECT id, user_id, keyword, results, status, created_at
        FROM queries WHERE id=$1 AND user_id=$2
    `, queryID, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, model.ErrNotFound
	}
	return scanQuery(rows)
}

func scanQuery(rows *sql.Rows) (*model.KeywordQuery, error) {
	var m model.KeywordQuery
	var resultsJSON []byte
	if err := rows.Scan(&m.ID, &m.UserID, &m.Keyword, &resultsJSON, &m.Status, &m.CreatedAt); err != nil {
		return nil, err
	}
	if len(resultsJSON) > 0 {
		_ = json.Unmarshal(resultsJSON, &m.Results)
	}
	return &m, nil
}

// --- Cache ---

type cache struct{ db *sql.DB }

func (c *cache) Get(ctx context.Context, keyword string, now time.Time) (*model.CacheEntry, error) {
	var out model.CacheEntry
	row := c.db.QueryRowContext(ctx, `
        SELECT keyword, data, data_source, created_at, expires_at
        FROM keyword_cache WHERE keyword=$1 AND expires_at > $2
    `, keyword, now)
	if err := row.Scan(&out.Keyword, &out.Data, &out.DataSource, &out.CreatedAt, &out.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (c *cache) Put(ctx context.Context, e *model.CacheEntry) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO keyword_cache (keyword, data, data_source, created_at, expires_at)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (keyword) DO UPDATE SET
          data = EXCLUDED.data,
          data_source = EXCLUDED.data_source,
          created_at = EXCLUDED.created_at,
          expires_at = EXCLUDED.expires_at
    `, e.Keyword, e.Data, e.DataSource, e.CreatedAt, e.ExpiresAt)
	return err
}

func (c *cache) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM keyword_cache WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
