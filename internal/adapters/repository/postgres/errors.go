package postgres

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

var uniqueConstraints = map[string]error{
	"events_title_category_key": domain.ErrDuplicateEvent,
	"users_email_key":           domain.ErrEmailTaken,
}

// translateError maps driver errors onto domain errors. Anything it does not
// recognise becomes a *domain.StorageError tagged with op.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			if known, ok := uniqueConstraints[pqErr.Constraint]; ok {
				return known
			}
			return fmt.Errorf("%s: %w", op, domain.ErrConflict)
		case codeSerializationFailure, codeDeadlockDetected:
			return domain.ErrWriteConflict
		}
	}

	return &domain.StorageError{Op: op, Err: err}
}
