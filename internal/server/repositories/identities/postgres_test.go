package identities

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/mediavault/internal/common"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestPublish_ReturnsBumpedVersion(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"key_version", "updated_at"}).AddRow(int64(3), now)
	mock.ExpectQuery(`INSERT\s+INTO\s+identities`).
		WithArgs("u1", []byte("wrap-pem"), []byte("sign-pem")).
		WillReturnRows(rows)

	got, err := repo.Publish(context.Background(), &models.Identity{
		UserID:        "u1",
		WrapPublicKey: []byte("wrap-pem"),
		SignPublicKey: []byte("sign-pem"),
	})
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if got.KeyVersion != 3 {
		t.Fatalf("expected version 3, got %d", got.KeyVersion)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+user_id,\s+wrap_public_key`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestMemory_PublishRotatesVersion(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	first, err := repo.Publish(ctx, &models.Identity{UserID: "u1", WrapPublicKey: []byte("w1"), SignPublicKey: []byte("s1")})
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if first.KeyVersion != 1 {
		t.Fatalf("expected version 1, got %d", first.KeyVersion)
	}

	second, err := repo.Publish(ctx, &models.Identity{UserID: "u1", WrapPublicKey: []byte("w2"), SignPublicKey: []byte("s2")})
	if err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if second.KeyVersion != 2 {
		t.Fatalf("expected version 2, got %d", second.KeyVersion)
	}

	got, err := repo.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if string(got.WrapPublicKey) != "w2" {
		t.Fatalf("rotation did not overwrite key material")
	}
}
