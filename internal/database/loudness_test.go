package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoudnessGetHit(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT loudness_lufs FROM track_loudness").
		WithArgs("qobuz", "qb1").
		WillReturnRows(sqlmock.NewRows([]string{"loudness_lufs"}).AddRow(-9.5))

	store := NewLoudnessStore(NewFromSQL(mockDB, DialectSQLite))
	loudness, ok, err := store.Get(context.Background(), "qobuz", "qb1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, -9.5, loudness)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoudnessGetMiss(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT loudness_lufs FROM track_loudness").
		WithArgs("qobuz", "absent").
		WillReturnRows(sqlmock.NewRows([]string{"loudness_lufs"}))

	store := NewLoudnessStore(NewFromSQL(mockDB, DialectSQLite))
	_, ok, err := store.Get(context.Background(), "qobuz", "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoudnessSetUpserts(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec("INSERT INTO track_loudness").
		WithArgs("qobuz", "qb1", -9.5).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewLoudnessStore(NewFromSQL(mockDB, DialectSQLite))
	require.NoError(t, store.Set(context.Background(), "qobuz", "qb1", -9.5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRewritePlaceholdersPostgres(t *testing.T) {
	db := NewFromSQL(nil, DialectPostgres)
	got := db.rewritePlaceholders("SELECT * FROM t WHERE a = ? AND b = ?")
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", got)

	sqlite := NewFromSQL(nil, DialectSQLite)
	assert.Equal(t, "a = ?", sqlite.rewritePlaceholders("a = ?"))
}
