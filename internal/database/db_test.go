package database

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return &DB{Pool: mock}, mock
}

func TestBeginRequest_BindsSettingsOnTheTransaction(t *testing.T) {
	db, mock := setupDB(t)
	principalID := "5f0c1a2b-0000-0000-0000-000000000001"

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT set_config\('app\.principal_id', \$1, true\), set_config\('app\.role', \$2, true\), set_config\('app\.visibility_mode', \$3, true\)`).
		WithArgs(principalID, "manager", "own").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectCommit()

	tx, err := db.BeginRequest(context.Background(), RequestSettings{
		PrincipalID:    principalID,
		Role:           "manager",
		VisibilityMode: "own",
	})

	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginRequest_BindFailureRollsBack(t *testing.T) {
	db, mock := setupDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT set_config`).
		WithArgs("p", "user", "").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := db.BeginRequest(context.Background(), RequestSettings{PrincipalID: "p", Role: "user"})

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
