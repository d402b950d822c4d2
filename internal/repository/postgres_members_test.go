package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winnersfit-data/internal/domain"
)

func setupMembersMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresMembersRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, NewPostgresMembersRepository(db)
}

var memberColumns = []string{
	"member_id", "local_ref", "name", "email", "phone",
	"plan_name", "expiry_date", "status", "join_date", "last_visit_at",
}

func TestListMembers(t *testing.T) {
	db, mock, repo := setupMembersMock(t)
	defer db.Close()

	visited := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows(memberColumns).
		AddRow("m-1", "loc_abc", "Alice", "alice@x.test", "0801", "Monthly Membership", "2026-12-01", "Active", "2026-01-10", visited).
		AddRow("m-2", "", "Bob", "", "", "Daily Pass", "2026-08-31", "Active", "2026-08-30", nil)

	mock.ExpectQuery(`SELECT`).WillReturnRows(rows)

	members, err := repo.ListMembers(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 2)

	assert.Equal(t, "m-1", members[0].ID)
	assert.Equal(t, "loc_abc", members[0].LocalRef)
	require.NotNil(t, members[0].LastVisitAt)
	assert.Equal(t, visited, *members[0].LastVisitAt)

	assert.Equal(t, "", members[1].LocalRef)
	assert.Nil(t, members[1].LastVisitAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMember_StoresLocalRef(t *testing.T) {
	db, mock, repo := setupMembersMock(t)
	defer db.Close()

	m := &domain.Member{
		ID:         "loc_abc",
		Name:       "Alice",
		Plan:       "Monthly Membership",
		ExpiryDate: "2026-12-01",
		Status:     "Active",
		JoinDate:   "2026-08-30",
	}

	mock.ExpectQuery(`INSERT INTO members`).
		WithArgs("loc_abc", "Alice", "", "", "Monthly Membership", "2026-12-01", "Active", "2026-08-30").
		WillReturnRows(sqlmock.NewRows([]string{"member_id"}).AddRow("m-100"))

	id, err := repo.CreateMember(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "m-100", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMember_HitsLocalRefToo(t *testing.T) {
	db, mock, repo := setupMembersMock(t)
	defer db.Close()

	status := "Expired"
	// WHERE 同时匹配正式 ID 和 local_ref，对账前的占位 ID 也能命中
	mock.ExpectExec(`UPDATE members`).
		WithArgs("Expired", "loc_abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateMember(context.Background(), "loc_abc", MemberUpdate{Status: &status})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMember_NoRows(t *testing.T) {
	db, mock, repo := setupMembersMock(t)
	defer db.Close()

	name := "Nobody"
	mock.ExpectExec(`UPDATE members`).
		WithArgs("Nobody", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateMember(context.Background(), "missing", MemberUpdate{Name: &name})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpdateMember_NoFieldsIsNoop(t *testing.T) {
	db, mock, repo := setupMembersMock(t)
	defer db.Close()

	err := repo.UpdateMember(context.Background(), "m-1", MemberUpdate{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMember(t *testing.T) {
	db, mock, repo := setupMembersMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM members`).
		WithArgs("m-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteMember(context.Background(), "m-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTouchLastVisit(t *testing.T) {
	db, mock, repo := setupMembersMock(t)
	defer db.Close()

	at := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE members SET last_visit_at`).
		WithArgs("m-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.TouchLastVisit(context.Background(), "m-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
