package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/dyilmaz/url-shortener/internal/domain"
	"github.com/dyilmaz/url-shortener/internal/repository"
)

// Config holds the connection and pool settings for the MySQL store.
type Config struct {
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	PoolMin    int
	PoolMax    int
	Autocommit bool
	Timeout    time.Duration
}

// Repository implements repository.Repository using MySQL through
// database/sql. The sql.DB is itself the bounded connection pool:
// connections are acquired per call and always returned on completion.
type Repository struct {
	db *sql.DB
}

// dsn builds the driver DSN for cfg. Session autocommit follows the
// configured flag; every write path commits an explicit transaction, so
// durability does not depend on it.
func dsn(cfg Config) string {
	dsnCfg := mysql.NewConfig()
	dsnCfg.User = cfg.User
	dsnCfg.Passwd = cfg.Password
	dsnCfg.Net = "tcp"
	dsnCfg.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dsnCfg.DBName = cfg.Database
	dsnCfg.ParseTime = true
	dsnCfg.Timeout = cfg.Timeout
	dsnCfg.ReadTimeout = cfg.Timeout
	dsnCfg.WriteTimeout = cfg.Timeout
	dsnCfg.Params = map[string]string{
		"autocommit": boolToSQL(cfg.Autocommit),
	}
	return dsnCfg.FormatDSN()
}

// New creates a Repository connected to the configured MySQL server and
// applies pending migrations.
func New(cfg Config) (*Repository, error) {
	db, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.PoolMax)
	db.SetMaxIdleConns(cfg.PoolMin)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db}

	if err := repo.runMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// NewWithDB wraps an existing database handle whose schema is already in
// place. Used by tests to run the repository against an in-memory store.
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a new user inside an explicit transaction and returns
// its id. A storage-layer unique constraint violation maps to
// repository.ErrDuplicateUsername.
func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, passwordHash)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, repository.ErrDuplicateUsername
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get user id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit user insert: %w", err)
	}
	return id, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := retryRead(ctx, func() error {
		return r.db.QueryRowContext(ctx,
			"SELECT id, username, password_hash FROM users WHERE username = ?",
			username).Scan(&user.ID, &user.Username, &user.PasswordHash)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// CreateLink inserts a new link inside an explicit transaction and returns
// its id. Writes are never retried: a failed commit of unknown status must
// not be replayed.
func (r *Repository) CreateLink(ctx context.Context, originalURL string, userID int64) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO urls (original_url, user_id) VALUES (?, ?)",
		originalURL, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert link: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get link id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit link insert: %w", err)
	}

	return id, nil
}

// GetLink retrieves a link by id.
func (r *Repository) GetLink(ctx context.Context, id int64) (*domain.Link, error) {
	var link domain.Link
	err := retryRead(ctx, func() error {
		return r.db.QueryRowContext(ctx,
			"SELECT id, original_url, user_id, created, clicks FROM urls WHERE id = ?",
			id).Scan(&link.ID, &link.OriginalURL, &link.UserID, &link.Created, &link.Clicks)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return &link, nil
}

// IncrementClicks increments the click counter of a link with a single
// store-side UPDATE, so concurrent redirects cannot lose increments. The
// update runs in an explicit committed transaction; sessions opened with
// autocommit disabled would otherwise leave the write pending until the
// connection is recycled.
func (r *Repository) IncrementClicks(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE urls SET clicks = clicks + 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check increment result: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit click increment: %w", err)
	}
	return nil
}

// ListLinksForUser retrieves a user's links, most recent first.
func (r *Repository) ListLinksForUser(ctx context.Context, userID int64, limit int) ([]*domain.Link, error) {
	var links []*domain.Link
	err := retryRead(ctx, func() error {
		rows, err := r.db.QueryContext(ctx,
			"SELECT id, original_url, user_id, created, clicks FROM urls WHERE user_id = ? ORDER BY created DESC, id DESC LIMIT ?",
			userID, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		links = links[:0]
		for rows.Next() {
			var link domain.Link
			if err := rows.Scan(&link.ID, &link.OriginalURL, &link.UserID, &link.Created, &link.Clicks); err != nil {
				return err
			}
			links = append(links, &link)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// LinkAggregates returns the total link count and total clicks for a user.
func (r *Repository) LinkAggregates(ctx context.Context, userID int64) (int64, int64, error) {
	var count, totalClicks int64
	err := retryRead(ctx, func() error {
		return r.db.QueryRowContext(ctx,
			"SELECT COUNT(*), COALESCE(SUM(clicks), 0) FROM urls WHERE user_id = ?",
			userID).Scan(&count, &totalClicks)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate links: %w", err)
	}
	return count, totalClicks, nil
}

// Ping verifies database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// isDuplicateKey reports whether err is a unique-constraint violation.
// MySQL reports error 1062; the sqlite driver used in tests reports the
// violation as a plain "UNIQUE constraint failed" message.
func isDuplicateKey(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToSQL(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Ensure Repository implements the interface
var _ repository.Repository = (*Repository)(nil)
