package postgres

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/predixarena/internal/core/domain"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate event", &pq.Error{Code: "23505", Constraint: "events_title_category_key"}, domain.ErrDuplicateEvent},
		{"duplicate email", &pq.Error{Code: "23505", Constraint: "users_email_key"}, domain.ErrEmailTaken},
		{"other unique", &pq.Error{Code: "23505", Constraint: "refresh_tokens_token_hash_key"}, domain.ErrConflict},
		{"serialization failure", &pq.Error{Code: "40001"}, domain.ErrWriteConflict},
		{"deadlock", &pq.Error{Code: "40P01"}, domain.ErrWriteConflict},
		{"check violation", &pq.Error{Code: "23514"}, domain.ErrStorage},
		{"connection refused", errors.New("dial tcp: connection refused"), domain.ErrStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateError("op", tt.err)
			require.ErrorIs(t, err, tt.want)
		})
	}

	assert.NoError(t, translateError("op", nil))

	var storageErr *domain.StorageError
	require.ErrorAs(t, translateError("insert vote", errors.New("boom")), &storageErr)
	assert.Equal(t, "insert vote", storageErr.Op)
}

func TestMigrationFilesAreEmbedded(t *testing.T) {
	entries, err := migrationFiles.ReadDir("migrations")
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "000001_create_users.up.sql", entries[0].Name())
}
