package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func TestPostgreSQLStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Get", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgreSQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT wrapped_key FROM wrapped_keys WHERE lookup_key = $1`)).
			WithArgs(key).
			WillReturnRows(sqlmock.NewRows([]string{"wrapped_key"}).AddRow([]byte("wrapped")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("wrapped"), got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Get not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgreSQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT wrapped_key FROM wrapped_keys WHERE lookup_key = $1`)).
			WithArgs(key).
			WillReturnError(sql.ErrNoRows)

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, facilityDomain.ErrKeyNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Get database error", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgreSQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT wrapped_key FROM wrapped_keys`)).
			WillReturnError(errors.New("connection reset"))

		_, err := store.Get(ctx, key)
		assert.ErrorContains(t, err, "failed to get wrapped key")
		assert.NotErrorIs(t, err, facilityDomain.ErrKeyNotFound)
	})

	t.Run("Set upserts", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgreSQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO wrapped_keys (lookup_key, wrapped_key, created_at)`)).
			WithArgs(key, []byte("wrapped"), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.Set(ctx, key, []byte("wrapped")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Delete", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgreSQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM wrapped_keys WHERE lookup_key = $1`)).
			WithArgs(key).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.Delete(ctx, key))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Delete not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgreSQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM wrapped_keys WHERE lookup_key = $1`)).
			WithArgs(key).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, store.Delete(ctx, key), facilityDomain.ErrKeyNotFound)
	})

	t.Run("List", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgreSQLStore(db)
		k1, k2 := randomLookupKey(t), randomLookupKey(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT lookup_key FROM wrapped_keys ORDER BY lookup_key`)).
			WillReturnRows(sqlmock.NewRows([]string{"lookup_key"}).AddRow(k1).AddRow(k2))

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{k1, k2}, keys)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Contains", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewPostgreSQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM wrapped_keys WHERE lookup_key = $1)`)).
			WithArgs(key).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		ok, err := store.Contains(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMySQLStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Get", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewMySQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT wrapped_key FROM wrapped_keys WHERE lookup_key = ?`)).
			WithArgs(key).
			WillReturnRows(sqlmock.NewRows([]string{"wrapped_key"}).AddRow([]byte("wrapped")))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, []byte("wrapped"), got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Get not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewMySQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT wrapped_key FROM wrapped_keys WHERE lookup_key = ?`)).
			WithArgs(key).
			WillReturnError(sql.ErrNoRows)

		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, facilityDomain.ErrKeyNotFound)
	})

	t.Run("Set upserts", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewMySQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectExec(regexp.QuoteMeta(`ON DUPLICATE KEY UPDATE wrapped_key = VALUES(wrapped_key)`)).
			WithArgs(key, []byte("wrapped"), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.Set(ctx, key, []byte("wrapped")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Set database error", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewMySQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO wrapped_keys`)).
			WillReturnError(errors.New("deadlock"))

		assert.ErrorContains(t, store.Set(ctx, key, []byte("wrapped")), "failed to store wrapped key")
	})

	t.Run("Delete not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewMySQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM wrapped_keys WHERE lookup_key = ?`)).
			WithArgs(key).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, store.Delete(ctx, key), facilityDomain.ErrKeyNotFound)
	})

	t.Run("List scan error", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewMySQLStore(db)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT lookup_key FROM wrapped_keys ORDER BY lookup_key`)).
			WillReturnRows(sqlmock.NewRows([]string{"lookup_key"}).
				AddRow(randomLookupKey(t)).
				RowError(0, errors.New("broken row")))

		_, err := store.List(ctx)
		assert.Error(t, err)
	})

	t.Run("Contains", func(t *testing.T) {
		db, mock := newMockDB(t)
		store := NewMySQLStore(db)
		key := randomLookupKey(t)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM wrapped_keys WHERE lookup_key = ?)`)).
			WithArgs(key).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		ok, err := store.Contains(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
