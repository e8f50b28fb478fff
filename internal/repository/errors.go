package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateKey is returned when a write collides with a unique index
var ErrDuplicateKey = errors.New("duplicate key")

const pgUniqueViolation = "23505"

func isPgUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}

func isMongoDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
