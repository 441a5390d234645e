package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "govportal/pkg/domain-errors"
	txcontext "govportal/pkg/platform/tx"
)

func TestRegistrationPostgresTx(t *testing.T) {
	t.Run("commits and exposes the tx to stores", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE registration_requests").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = newRegistrationPostgresTx(db, time.Second).RunInTx(context.Background(), func(ctx context.Context) error {
			_, err := txcontext.Exec(ctx, db).ExecContext(ctx, "UPDATE registration_requests SET status = 'approved'")
			return err
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("audit insert failed")
		err = newRegistrationPostgresTx(db, time.Second).RunInTx(context.Background(), func(context.Context) error {
			return boom
		})

		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("refuses a cancelled context", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err = newRegistrationPostgresTx(db, time.Second).RunInTx(ctx, func(context.Context) error {
			t.Fatal("fn must not run")
			return nil
		})

		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
