// internal/credstore/postgres_test.go
package credstore_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xkilldash9x/linkforge-cli/internal/credstore"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (*credstore.PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return credstore.NewPostgresStoreWithPool(mock, zap.NewNop()), mock
}

func TestPostgresStoreLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored record", func(t *testing.T) {
		store, mock := newMockStore(t)
		rows := pgxmock.NewRows([]string{"username", "email", "password", "profile_url", "created_at"}).
			AddRow("alice", "box@example.com", "pw", "https://yplocal.example/p/1", "2026-08-30T10:00:00Z")
		mock.ExpectQuery("SELECT username, email, password, profile_url, created_at").
			WithArgs("yplocal").
			WillReturnRows(rows)

		rec, found, err := store.Load(ctx, "YP Local")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "alice", rec.Username)
		assert.Equal(t, "https://yplocal.example/p/1", rec.ProfileURL)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not an error", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery("SELECT username").
			WithArgs("unknown").
			WillReturnError(pgx.ErrNoRows)

		_, found, err := store.Load(ctx, "Unknown")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestPostgresStoreSave(t *testing.T) {
	ctx := context.Background()
	rec := credstore.Record{
		Username:  "alice",
		Email:     "box@example.com",
		Password:  "pw",
		CreatedAt: "2026-08-30T10:00:00Z",
	}

	t.Run("without overwrite the conflict is a no-op", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("ON CONFLICT \\(site_key\\) DO NOTHING").
			WithArgs("yplocal", "YP Local", "alice", "box@example.com", "pw", "", "2026-08-30T10:00:00Z").
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		require.NoError(t, store.Save(ctx, "YP Local", rec, false))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with overwrite the row is upserted", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("ON CONFLICT \\(site_key\\) DO UPDATE").
			WithArgs("yplocal", "YP Local", "alice", "box@example.com", "pw", "", "2026-08-30T10:00:00Z").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, store.Save(ctx, "YP Local", rec, true))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStoreAttachProfileURL(t *testing.T) {
	ctx := context.Background()

	t.Run("updates an existing row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("UPDATE site_credentials SET profile_url").
			WithArgs("yplocal", "https://yplocal.example/p/2").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, store.AttachProfileURL(ctx, "YP Local", "https://yplocal.example/p/2"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("errors when no row matches", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("UPDATE site_credentials SET profile_url").
			WithArgs("nowhere", "https://x.example").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.Error(t, store.AttachProfileURL(ctx, "nowhere", "https://x.example"))
	})
}
