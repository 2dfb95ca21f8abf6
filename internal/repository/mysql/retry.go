package mysql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

const (
	maxReadAttempts = 3
	retryBackoff    = 50 * time.Millisecond
)

// retryRead runs a read-only query, retrying on transient connection
// failures. Only reads go through this path: a write whose commit status is
// unknown must never be replayed.
func retryRead(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= maxReadAttempts; attempt++ {
		err = fn()
		if err == nil || !isTransient(err) {
			return err
		}
		if attempt == maxReadAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
	return err
}

// isTransient reports whether err looks like a connection-level failure
// that a fresh pooled connection may not reproduce.
func isTransient(err error) bool {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
