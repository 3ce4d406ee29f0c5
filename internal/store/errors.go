package store

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry = 1062 // ER_DUP_ENTRY
	mysqlDataTooLong    = 1406 // ER_DATA_TOO_LONG
)

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	// SQLite drivers only expose the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsValueTooLong reports whether err was caused by a string exceeding its
// column size. SQLite does not enforce sizes.
func IsValueTooLong(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.StringDataRightTruncationDataException
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDataTooLong
	}
	return false
}
