package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFS_SkipsRecordedVersions(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	fsys := fstest.MapFS{
		"sql/V1__init.sql":       {Data: []byte("CREATE TABLE one (id TEXT)")},
		"sql/V2__add_column.sql": {Data: []byte("ALTER TABLE one ADD COLUMN name TEXT")},
		"sql/README.md":          {Data: []byte("ignored")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow("1"))
	mock.ExpectBegin()
	mock.ExpectExec("ALTER TABLE one ADD COLUMN name TEXT").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").
		WithArgs("2", "V2__add_column.sql").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, ApplyFS(db, fsys, "sql"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMigrations_OrdersNumerically(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/V10__later.sql": {Data: []byte("SELECT 10")},
		"sql/V2__second.sql": {Data: []byte("SELECT 2")},
		"sql/V1__first.sql":  {Data: []byte("SELECT 1")},
	}
	migs, err := listMigrations(fsys, "sql")
	require.NoError(t, err)
	require.Len(t, migs, 3)
	assert.Equal(t, []string{"1", "2", "10"}, []string{migs[0].Version, migs[1].Version, migs[2].Version})
}

func TestListMigrations_RejectsUnversionedFiles(t *testing.T) {
	fsys := fstest.MapFS{"sql/init.sql": {Data: []byte("SELECT 1")}}
	_, err := listMigrations(fsys, "sql")
	assert.Error(t, err)
}

func TestEmbeddedMigrationsAreVersioned(t *testing.T) {
	migs, err := listMigrations(embedded, "sql")
	require.NoError(t, err)
	require.Len(t, migs, 2)
	assert.Equal(t, "1", migs[0].Version)
	assert.Equal(t, "2", migs[1].Version)
}
