package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pipegrid/pipegrid-api/internal/database"
	"github.com/pipegrid/pipegrid-api/internal/models"
)

func setupQuotaService(t *testing.T) (*QuotaService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	return NewQuotaService(db), mock
}

func TestQuotaService_Get(t *testing.T) {
	svc, mock := setupQuotaService(t)
	ctx := context.Background()
	workspaceID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"workspace_id",
		"max_users", "current_users",
		"max_contacts", "current_contacts",
		"max_deals", "current_deals",
		"max_storage_mb", "current_storage_mb",
		"updated_at",
	}).AddRow(workspaceID, int64(2), int64(1), int64(100), int64(40), int64(50), int64(10), int64(500), int64(0), now)

	mock.ExpectQuery(`SELECT workspace_id`).
		WithArgs(workspaceID).
		WillReturnRows(rows)

	quota, err := svc.Get(ctx, workspaceID)

	require.NoError(t, err)
	assert.Equal(t, int64(100), quota.MaxContacts)
	assert.Equal(t, int64(40), quota.CurrentContacts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaService_CanCreate_UnderLimit(t *testing.T) {
	svc, mock := setupQuotaService(t)
	workspaceID := uuid.New()

	rows := pgxmock.NewRows([]string{"current_contacts", "max_contacts"}).
		AddRow(int64(40), int64(100))
	mock.ExpectQuery(`SELECT current_contacts, max_contacts FROM workspace_quotas`).
		WithArgs(workspaceID).
		WillReturnRows(rows)

	assert.True(t, svc.CanCreate(context.Background(), workspaceID, models.KindContacts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaService_CanCreate_AtCeiling(t *testing.T) {
	svc, mock := setupQuotaService(t)
	workspaceID := uuid.New()

	rows := pgxmock.NewRows([]string{"current_contacts", "max_contacts"}).
		AddRow(int64(100), int64(100))
	mock.ExpectQuery(`SELECT current_contacts, max_contacts FROM workspace_quotas`).
		WithArgs(workspaceID).
		WillReturnRows(rows)

	assert.False(t, svc.CanCreate(context.Background(), workspaceID, models.KindContacts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaService_CanCreate_Unlimited(t *testing.T) {
	svc, mock := setupQuotaService(t)
	workspaceID := uuid.New()

	// current above a previous ceiling must not matter when the kind is unlimited
	rows := pgxmock.NewRows([]string{"current_deals", "max_deals"}).
		AddRow(int64(9000), int64(models.QuotaUnlimited))
	mock.ExpectQuery(`SELECT current_deals, max_deals FROM workspace_quotas`).
		WithArgs(workspaceID).
		WillReturnRows(rows)

	assert.True(t, svc.CanCreate(context.Background(), workspaceID, models.KindDeals))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaService_CanCreate_FailsClosed(t *testing.T) {
	svc, mock := setupQuotaService(t)
	workspaceID := uuid.New()

	mock.ExpectQuery(`SELECT current_users, max_users FROM workspace_quotas`).
		WithArgs(workspaceID).
		WillReturnError(assert.AnError)

	assert.False(t, svc.CanCreate(context.Background(), workspaceID, models.KindUsers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaService_CanCreate_UnknownKind(t *testing.T) {
	svc, _ := setupQuotaService(t)
	assert.False(t, svc.CanCreate(context.Background(), uuid.New(), models.ResourceKind("gadgets")))
}

func TestQuotaService_CanCreate_IsReadOnly(t *testing.T) {
	svc, mock := setupQuotaService(t)
	workspaceID := uuid.New()

	// Two checks in a row issue two reads and zero writes.
	for i := 0; i < 2; i++ {
		rows := pgxmock.NewRows([]string{"current_contacts", "max_contacts"}).
			AddRow(int64(40), int64(100))
		mock.ExpectQuery(`SELECT current_contacts, max_contacts FROM workspace_quotas`).
			WithArgs(workspaceID).
			WillReturnRows(rows)
	}

	assert.True(t, svc.CanCreate(context.Background(), workspaceID, models.KindContacts))
	assert.True(t, svc.CanCreate(context.Background(), workspaceID, models.KindContacts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaService_Consume_Success(t *testing.T) {
	svc, mock := setupQuotaService(t)
	workspaceID := uuid.New()

	mock.ExpectExec(`UPDATE workspace_quotas\s+SET current_contacts = current_contacts \+ \$2`).
		WithArgs(workspaceID, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := svc.Consume(context.Background(), workspaceID, models.KindContacts, 1)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaService_Consume_CeilingReached(t *testing.T) {
	svc, mock := setupQuotaService(t)
	workspaceID := uuid.New()

	// The conditional UPDATE matches no row when the increment would cross
	// the ceiling.
	mock.ExpectExec(`UPDATE workspace_quotas`).
		WithArgs(workspaceID, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := svc.Consume(context.Background(), workspaceID, models.KindContacts, 1)

	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaService_Consume_UnknownKind(t *testing.T) {
	svc, _ := setupQuotaService(t)
	err := svc.Consume(context.Background(), uuid.New(), models.ResourceKind("gadgets"), 1)
	assert.Error(t, err)
}

func TestQuotaService_Release_FlooredAtZero(t *testing.T) {
	svc, mock := setupQuotaService(t)
	workspaceID := uuid.New()

	mock.ExpectExec(`SET current_deals = GREATEST\(current_deals - \$2, 0\)`).
		WithArgs(workspaceID, int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := svc.Release(context.Background(), workspaceID, models.KindDeals, 1)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaService_SetMaxima_Partial(t *testing.T) {
	svc, mock := setupQuotaService(t)
	workspaceID := uuid.New()
	contacts := int64(1000)

	// Only the contacts ceiling is written; nothing touches the counters or
	// the other maxima.
	mock.ExpectExec(`UPDATE workspace_quotas SET max_contacts = \$2, updated_at = NOW\(\) WHERE workspace_id = \$1`).
		WithArgs(workspaceID, contacts).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := svc.SetMaxima(context.Background(), workspaceID, models.QuotaUpdate{Contacts: &contacts})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaService_SetMaxima_AllFields(t *testing.T) {
	svc, mock := setupQuotaService(t)
	workspaceID := uuid.New()
	limits := models.TierLimits[models.TierStarter]

	mock.ExpectExec(`UPDATE workspace_quotas SET max_users = \$2, max_contacts = \$3, max_deals = \$4, max_storage_mb = \$5`).
		WithArgs(workspaceID, limits.Users, limits.Contacts, limits.Deals, limits.StorageMB).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := svc.SetMaxima(context.Background(), workspaceID, limits.Update())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaService_SetMaxima_NothingToDo(t *testing.T) {
	svc, mock := setupQuotaService(t)

	err := svc.SetMaxima(context.Background(), uuid.New(), models.QuotaUpdate{})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuotaService_SetMaxima_MissingWorkspace(t *testing.T) {
	svc, mock := setupQuotaService(t)
	workspaceID := uuid.New()
	users := int64(5)

	mock.ExpectExec(`UPDATE workspace_quotas`).
		WithArgs(workspaceID, users).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := svc.SetMaxima(context.Background(), workspaceID, models.QuotaUpdate{Users: &users})

	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
