package migration

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sentinelQuery = "SELECT to_regclass('public.document_records') IS NOT NULL"

func TestEnsureMigrated(t *testing.T) {
	ctx := context.Background()

	t.Run("schema exists skips migration", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		core, logs := observer.New(zapcore.InfoLevel)

		mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err = EnsureMigrated(ctx, db, zap.New(core), "localhost")
		assert.NoError(t, err)
		assert.Equal(t, 1, logs.FilterMessage("db_migration_skip").Len())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("runs every step", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		core, logs := observer.New(zapcore.InfoLevel)

		mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		for _, step := range steps {
			mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectCommit()

		err = EnsureMigrated(ctx, db, zap.New(core), "localhost")
		assert.NoError(t, err)
		assert.Equal(t, len(steps), logs.FilterMessage("db_migration_step").Len())
		assert.Equal(t, 1, logs.FilterMessage("db_migration_success").Len())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sentinel query error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).WillReturnError(errors.New("conn refused"))

		err = EnsureMigrated(ctx, db, zap.NewNop(), "localhost")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check sentinel table: conn refused")
	})

	t.Run("step failure stops migration", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(steps[0].SQL)).WillReturnError(errors.New("permission denied"))
		mock.ExpectRollback()

		err = EnsureMigrated(ctx, db, zap.NewNop(), "localhost")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "migration step create_table_document_records failed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("index failure rolls back earlier steps", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		last := len(steps) - 1
		for _, step := range steps[:last] {
			mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectExec(regexp.QuoteMeta(steps[last].SQL)).WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err = EnsureMigrated(ctx, db, zap.NewNop(), "localhost")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "migration step "+steps[last].Name+" failed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		err = EnsureMigrated(ctx, db, zap.NewNop(), "localhost")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin migration transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit failure", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta(sentinelQuery)).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		for _, step := range steps {
			mock.ExpectExec(regexp.QuoteMeta(step.SQL)).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

		err = EnsureMigrated(ctx, db, zap.NewNop(), "localhost")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to commit migration")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
