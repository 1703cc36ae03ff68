package migrate

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestSteps_PostgresSQL(t *testing.T) {
	steps := Steps()

	testCases := []struct {
		name     string
		step     Step
		expected []string
	}{
		{
			name: "v2 stores sign text as BYTEA",
			step: steps[1],
			expected: []string{
				`CREATE TABLE routes_v2 (`,
				`SELECT "id", "type", "name", "command1", "command2", convert_to("text", 'UTF8') FROM routes`,
				`DROP TABLE routes`,
				`ALTER TABLE routes_v2 RENAME TO routes`,
			},
		},
		{
			name: "v3 decodes sign bytes back to text",
			step: steps[2],
			expected: []string{
				`CREATE TABLE routes_v3 (`,
				`convert_from("alfaSignBytes", 'UTF8'), "id" || '.bin' FROM routes`,
				`DROP TABLE routes`,
				`ALTER TABLE routes_v3 RENAME TO routes`,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gormDB, mock := newMockDB(t)
			for _, stmt := range tc.expected {
				mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
			}

			require.NoError(t, tc.step.Apply(gormDB, Postgres))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSteps_PostgresBlobColumn(t *testing.T) {
	gormDB, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`"alfaSignBytes" BYTEA NOT NULL`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`convert_to("text", 'UTF8')`)).
		WillReturnError(assert.AnError)

	err := Steps()[1].Apply(gormDB, Postgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `INSERT INTO routes_v2`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, "BYTEA", d.BlobType)

	d, err = DialectFor("sqlite")
	require.NoError(t, err)
	assert.Equal(t, "CAST(x AS BLOB)", d.TextToBytes("x"))

	_, err = DialectFor("mysql")
	assert.Error(t, err)
}
