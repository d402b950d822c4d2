package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStaffMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStaffRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresStaffRepository(db)
}

var staffTestColumns = []string{
	"staff_id", "first_name", "last_name", "email", "username", "role", "status",
	"phone", "address", "password_hash", "pin_hash", "device_id", "device_fingerprint",
	"last_action", "last_action_date", "profile_setup_at", "last_login_at", "created_at",
}

func staffRow(id, deviceID string) *sqlmock.Rows {
	return sqlmock.NewRows(staffTestColumns).AddRow(
		id, "Jade", "Okoro", "jade@winnersfit.test", "122493021", "staff", "active",
		nil, nil, []byte{0x01}, []byte{0x02}, deviceID, nil,
		"Clock In", "2026-08-30", time.Now(), nil, time.Now(),
	)
}

func TestGetStaffByDevice(t *testing.T) {
	db, mock, repo := setupStaffMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT(.|\n)*FROM staff WHERE device_id`).
		WithArgs("dev-1").
		WillReturnRows(staffRow("s1", "dev-1"))

	s, err := repo.GetStaffByDevice(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "Jade Okoro", s.FullName())
	assert.Equal(t, "Clock In", s.LastAction.String)
	assert.Equal(t, "2026-08-30", s.LastActionDate.String)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStaffByDevice_Unbound(t *testing.T) {
	db, mock, repo := setupStaffMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT(.|\n)*FROM staff WHERE device_id`).
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows(staffTestColumns))

	_, err := repo.GetStaffByDevice(context.Background(), "unknown")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBindDevice(t *testing.T) {
	db, mock, repo := setupStaffMock(t)
	defer db.Close()

	pinHash := []byte{0xde, 0xad}
	mock.ExpectExec(`UPDATE staff`).
		WithArgs("s1", "jade.okoro", pinHash, "dev-9", "fp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.BindDevice(context.Background(), "s1", "jade.okoro", pinHash, "dev-9", "fp-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBindDevice_MissingStaff(t *testing.T) {
	db, mock, repo := setupStaffMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE staff`).
		WithArgs("missing", "u", []byte{0x01}, "dev", "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.BindDevice(context.Background(), "missing", "u", []byte{0x01}, "dev", "")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRelinkDevice(t *testing.T) {
	db, mock, repo := setupStaffMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE staff SET device_id`).
		WithArgs("s1", "dev-new").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.RelinkDevice(context.Background(), "s1", "dev-new"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
