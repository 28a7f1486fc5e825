// Package store holds the typed persistence ports of both services and their
// PostgreSQL implementations. Writes that must commit together go through
// TxRunner and take the open *sql.Tx explicitly; reads run on the pool.
package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned by lookups when no row matches.
var ErrNotFound = errors.New("not found")

// IsDuplicateKey reports whether err is a PostgreSQL unique-constraint
// violation. The idempotency key column is unique, so two concurrent fresh
// executions of the same key make the second committer fail with this.
func IsDuplicateKey(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
