package store

import (
	"errors"

	sqlite "modernc.org/sqlite"

	"github.com/lazypower/engram/internal/apperr"
)

// sqliteConstraintPrimary is SQLite's primary result code for any constraint
// violation (CHECK, UNIQUE, NOT NULL, FK); extended codes pack it into the
// low byte, so masking recovers it regardless of which extended code the
// driver reports.
const sqliteConstraintPrimary = 19

// wrapWriteErr classifies an INSERT/UPDATE/DELETE failure. A constraint
// violation (most commonly a CHECK on an enum column like memory_type or
// tier) means the caller sent bad data, so it surfaces as InvalidInput
// rather than the retryable-looking Storage kind spec §7 reserves for
// genuine storage failures.
func wrapWriteErr(operation, detail string, err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqliteConstraintPrimary {
		return apperr.New(apperr.InvalidInput, operation, detail+": "+err.Error())
	}
	return apperr.Wrap(apperr.Storage, operation, detail, err)
}
