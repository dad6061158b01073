package accessrequests

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_UniqueViolationIsConflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+access_requests`).
		WithArgs("item1", "bob").
		WillReturnError(&pgconn.PgError{Code: uniqueViolation})

	_, err := repo.Create(context.Background(), newRequest("item1", "bob"))
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("expected ErrorConflict, got %v", err)
	}
}

func TestMarkApproved_CASSuccess(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+access_requests\s+SET\s+state\s*=\s*'approved'`).
		WithArgs("req1", []byte("wrapped")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkApproved(context.Background(), "req1", []byte("wrapped")); err != nil {
		t.Fatalf("MarkApproved error: %v", err)
	}
}

func TestMarkApproved_LostRaceIsInvalidState(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// zero rows updated but the row exists: another decision won the race
	mock.ExpectExec(`UPDATE\s+access_requests\s+SET\s+state\s*=\s*'approved'`).
		WithArgs("req1", []byte("wrapped")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT\s+EXISTS`).
		WithArgs("req1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := repo.MarkApproved(context.Background(), "req1", []byte("wrapped"))
	if !errors.Is(err, common.ErrorInvalidState) {
		t.Fatalf("expected ErrorInvalidState, got %v", err)
	}
}

func TestMarkApproved_AbsentRequestIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+access_requests\s+SET\s+state\s*=\s*'approved'`).
		WithArgs("ghost", []byte("wrapped")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT\s+EXISTS`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	err := repo.MarkApproved(context.Background(), "ghost", []byte("wrapped"))
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestMarkRejected_ClearsWrappedKey(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+access_requests\s+SET\s+state\s*=\s*'rejected',\s*wrapped_key\s*=\s*NULL`).
		WithArgs("req1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkRejected(context.Background(), "req1"); err != nil {
		t.Fatalf("MarkRejected error: %v", err)
	}
}

func TestFindActive_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+id,\s+item_id`).
		WithArgs("item1", "bob").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background(), "item1", "bob")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}
