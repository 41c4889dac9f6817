package store

import (
	"context"
	"testing"
	"time"

	"beacon-guardian/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return NewPostgres(sqlx.NewDb(raw, "sqlmock")), mock
}

func TestPostgres_FindElderByMac(t *testing.T) {
	pg, mock := setupPostgres(t)
	seen := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM elders\s+WHERE replace\(upper\(mac_address\), '-', ':'\) = \$1`).
		WithArgs("AA:BB:CC:DD:EE:FF").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "name", "mac_address", "status", "last_seen"}).
			AddRow("e1", "t1", "Grandma Lin", "AA:BB:CC:DD:EE:FF", "active", seen))

	elder, err := pg.FindElderByMac(context.Background(), "aa-bb-cc-dd-ee-ff")
	require.NoError(t, err)
	require.NotNil(t, elder)
	assert.Equal(t, "e1", elder.ID)
	assert.Equal(t, models.ElderActive, elder.Status)
	assert.Equal(t, seen, elder.LastSeen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LookupsReturnNilWhenMissing(t *testing.T) {
	pg, mock := setupPostgres(t)
	ctx := context.Background()
	mock.ExpectQuery(`FROM elders`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`FROM gateways`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`FROM tenants`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`FROM alerts`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	elder, err := pg.FindElderByMac(ctx, "AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)
	assert.Nil(t, elder)
	gateway, err := pg.FindGateway(ctx, "t1", "GW-1")
	require.NoError(t, err)
	assert.Nil(t, gateway)
	tenant, err := pg.GetTenant(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, tenant)
	alert, err := pg.GetAlert(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, alert)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AppendSignalLogDefaultsMetadata(t *testing.T) {
	pg, mock := setupPostgres(t)
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO signal_logs`).
		WithArgs("l1", "t1", "e1", "AA:BB:CC:DD:EE:FF", -65, "GW-1", "normal", at, "{}", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := pg.AppendSignalLog(context.Background(), &models.SignalLog{
		ID: "l1", TenantID: "t1", ElderID: "e1", MacAddress: "AA:BB:CC:DD:EE:FF",
		Rssi: -65, GatewayID: "GW-1", SignalType: models.SignalNormal, Timestamp: at, CreatedAt: at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_HasSignalSinceExcludesCurrentLog(t *testing.T) {
	pg, mock := setupPostgres(t)
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT EXISTS\(`).
		WithArgs("e1", since, "l1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	seen, err := pg.HasSignalSince(context.Background(), "e1", since, "l1")
	require.NoError(t, err)
	assert.False(t, seen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FindOpenAlertFiltersByStatus(t *testing.T) {
	pg, mock := setupPostgres(t)
	mock.ExpectQuery(`status = ANY\(\$3\)`).
		WithArgs("e1", "inactivity", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "elder_id", "alert_type", "status"}).
			AddRow("a1", "e1", "inactivity", "acknowledged"))

	alert, err := pg.FindOpenAlert(context.Background(), "e1", models.AlertInactivity, models.OpenAlertStatuses)
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, models.AlertAcknowledged, alert.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_MarkLatestNotified(t *testing.T) {
	pg, mock := setupPostgres(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE alerts\s+SET notification_sent = TRUE`).
		WithArgs("e1", "emergency", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE alerts\s+SET notification_sent = TRUE`).
		WithArgs("e1", "emergency", at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	marked, err := pg.MarkLatestNotified(context.Background(), "e1", models.AlertEmergency, at)
	require.NoError(t, err)
	assert.True(t, marked)
	marked, err = pg.MarkLatestNotified(context.Background(), "e1", models.AlertEmergency, at)
	require.NoError(t, err)
	assert.False(t, marked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateAlertStatusIsConditional(t *testing.T) {
	pg, mock := setupPostgres(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	alert := &models.Alert{ID: "a1", Status: models.AlertPending}
	require.NoError(t, alert.Resolve(at))

	mock.ExpectExec(`WHERE id = \$1 AND status = \$2`).
		WithArgs("a1", "pending", "resolved", nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := pg.UpdateAlertStatus(context.Background(), alert, models.AlertPending)
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}
