package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keywordpulse/keywordpulse/internal/model"
	"github.com/keywordpulse/keywordpulse/internal/store"
)

// New opens the database at path, ensures the schema, and returns the store.
func New(path string) (store.Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewWithDB(db), nil
}

// NewWithDB constructs a SQLite store from an already opened database.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Users() store.Users     { return &users{db: s.db} }
func (s *sqliteStore) Queries() store.Queries { return &queries{db: s.db} }
func (s *sqliteStore) Cache() store.Cache     { return &cache{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- Users ---

type users struct{ db *sql.DB }

func (u *users) GetOrCreate(ctx context.Context, email string) (*model.User, error) {
	if existing, err := u.getByEmail(ctx, email); err == nil {
		return existing, nil
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	out := &model.User{
		ID:               uuid.New().String(),
		Email:            email,
		SubscriptionTier: model.TierFree,
		CreatedAt:        time.Now().UTC(),
	}
	_, err := u.db.ExecContext(ctx, `
        INSERT INTO users (id, email, query_count, subscription_tier, created_at)
        VALUES (?,?,0,?,?)
    `, out.ID, email, out.SubscriptionTier, out.CreatedAt)
	if err != nil {
		// Concurrent creation lost the race; the winner's row is the user.
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
        FROM users WHERE email=?
    `, email)
	return scanUser(row)
}

func (u *users) Get(ctx context.Context, userID string) (*model.User, error) {
	row := u.db.QueryRowContext(ctx, `
        SELECT id, email, query_count, subscription_tier, last_query_at, created_at
        FROM users WHERE id=?
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
        UPDATE users SET query_count = query_count + 1, last_query_at = ? WHERE id = ?
    `, now.UTC(), userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (u *users) ResetQueryCount(ctx context.Context, userID string) error {
	_, err := u.db.ExecContext(ctx, `UPDATE users SET query_count = 0 WHERE id = ?`, userID)
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
	created := time.Now().UTC()
	_, err = q.db.ExecContext(ctx, `
        INSERT INTO queries (id, user_id, keyword, results, status, created_at)
        VALUES (?,?,?,?,?,?)
    `, id, m.UserID, m.Keyword, string(resultsJSON), status, created)
	if err != nil {
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
        FROM queries WHERE user_id=? AND status=?
        ORDER BY created_at DESC`
	args := []interface{}{userID, model.StatusCompleted}
	if limit > 0 {
		query += " LIMIT ?"
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
        FROM queries WHERE id=? AND user_id=?
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
	var resultsJSON string
	if err := rows.Scan(&m.ID, &m.UserID, &m.Keyword, &resultsJSON, &m.Status, &m.CreatedAt); err != nil {
		return nil, err
	}
	if resultsJSON != "" {
		_ = json.Unmarshal([]byte(resultsJSON), &m.Results)
	}
	return &m, nil
}

// --- Cache ---

type cache struct{ db *sql.DB }

func (c *cache) Get(ctx context.Context, keyword string, now time.Time) (*model.CacheEntry, error) {
	var out model.CacheEntry
	row := c.db.QueryRowContext(ctx, `
        SELECT keyword, data, data_source, created_at, expires_at
        FROM keyword_cache WHERE keyword=? AND expires_at > ?
    `, keyword, now.UTC())
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
        VALUES (?,?,?,?,?)
        ON CONFLICT (keyword) DO UPDATE SET
          data = excluded.data,
          data_source = excluded.data_source,
          created_at = excluded.created_at,
          expires_at = excluded.expires_at
    `, e.Keyword, e.Data, e.DataSource, e.CreatedAt.UTC(), e.ExpiresAt.UTC())
	return err
}

func (c *cache) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM keyword_cache WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
