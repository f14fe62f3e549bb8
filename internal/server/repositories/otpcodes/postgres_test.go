package otpcodes

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/sevr/internal/common"
	"github.com/dmitrijs2005/sevr/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Date(2025, 5, 1, 12, 10, 0, 0, time.UTC)
	q := `(?s)^\s*INSERT\s+INTO\s+otp_codes\s*\(email,\s*code,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id\s*$`
	mock.ExpectQuery(q).
		WithArgs("a@x.com", "123456", exp).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("c-1"))

	code := &models.OneTimeCode{Email: "a@x.com", Code: "123456", ExpiresAt: exp}
	if err := repo.Create(context.Background(), code); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if code.ID != "c-1" {
		t.Fatalf("id not set: %+v", code)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	dbErr := errors.New("db down")
	mock.ExpectQuery(`INSERT\s+INTO\s+otp_codes`).WillReturnError(dbErr)

	err := repo.Create(context.Background(), &models.OneTimeCode{Email: "a@x.com"})
	if err == nil || !regexp.MustCompile(`error performing sql request: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if !errors.Is(err, dbErr) {
		t.Fatalf("db error not in chain: %v", err)
	}
}

func TestDeleteStale_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+otp_codes`).WillReturnError(sql.ErrConnDone)

	_, err := repo.DeleteStale(context.Background(), time.Now())
	if !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected wrapped ErrConnDone, got %v", err)
	}
}

func TestDeleteStale(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(`^DELETE\s+FROM\s+otp_codes\s+WHERE\s+expires_at\s*<\s*\$1\s+OR\s+used$`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteStale(context.Background(), now)
	if err != nil {
		t.Fatalf("DeleteStale error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deleted, got %d", n)
	}
}

func TestFindActive_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := `(?s)SELECT\s+id,\s*email,\s*code,\s*expires_at,\s*attempts,\s*used\s+FROM\s+otp_codes\s+WHERE\s+email\s*=\s*\$1\s+AND\s+NOT\s+used\s+AND\s+expires_at\s*>\s*\$2\s+ORDER\s+BY\s+expires_at\s+DESC\s+LIMIT\s+1`
	mock.ExpectQuery(q).
		WithArgs("a@x.com", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "code", "expires_at", "attempts", "used"}).
			AddRow("c-1", "a@x.com", "123456", now.Add(time.Minute), 2, false))

	c, err := repo.FindActive(context.Background(), "a@x.com", now)
	if err != nil {
		t.Fatalf("FindActive error: %v", err)
	}
	if c.ID != "c-1" || c.Attempts != 2 || c.Used {
		t.Fatalf("unexpected code: %+v", c)
	}
}

func TestFindActive_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+otp_codes`).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background(), "a@x.com", time.Now())
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestFindLatest_IncludesUsed(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := `(?s)SELECT\s+id,\s*email,\s*code,\s*expires_at,\s*attempts,\s*used\s+FROM\s+otp_codes\s+WHERE\s+email\s*=\s*\$1\s+AND\s+expires_at\s*>\s*\$2\s+ORDER\s+BY\s+expires_at\s+DESC\s+LIMIT\s+1`
	mock.ExpectQuery(q).
		WithArgs("a@x.com", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "code", "expires_at", "attempts", "used"}).
			AddRow("c-1", "a@x.com", "123456", now.Add(time.Minute), 5, true))

	c, err := repo.FindLatest(context.Background(), "a@x.com", now)
	if err != nil {
		t.Fatalf("FindLatest error: %v", err)
	}
	if c.Attempts != 5 || !c.Used {
		t.Fatalf("unexpected code: %+v", c)
	}
}

const incrementQuery = `(?s)UPDATE\s+otp_codes\s+SET\s+attempts\s*=\s*attempts\s*\+\s*1,\s*used\s*=\s*attempts\s*\+\s*1\s*>=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s+AND\s+NOT\s+used\s+RETURNING\s+attempts`

func TestIncrementAttempts_ReturnsCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(incrementQuery).
		WithArgs("c-1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}).AddRow(3))

	n, err := repo.IncrementAttempts(context.Background(), "c-1", 5)
	if err != nil {
		t.Fatalf("IncrementAttempts error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIncrementAttempts_UsedRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(incrementQuery).
		WithArgs("c-1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"attempts"}))

	if _, err := repo.IncrementAttempts(context.Background(), "c-1", 5); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestMarkUsed(t *testing.T) {
	q := `UPDATE\s+otp_codes\s+SET\s+used\s*=\s*TRUE\s+WHERE\s+id\s*=\s*\$1\s+AND\s+NOT\s+used$`

	t.Run("consumes", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WithArgs("c-1").WillReturnResult(sqlmock.NewResult(0, 1))
		if err := repo.MarkUsed(context.Background(), "c-1"); err != nil {
			t.Fatalf("MarkUsed error: %v", err)
		}
	})

	t.Run("already used", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WithArgs("c-1").WillReturnResult(sqlmock.NewResult(0, 0))
		if err := repo.MarkUsed(context.Background(), "c-1"); !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("expected ErrorNotFound, got %v", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WithArgs("c-1").WillReturnError(errors.New("boom"))
		err := repo.MarkUsed(context.Background(), "c-1")
		if err == nil || !regexp.MustCompile(`db error: .*boom`).MatchString(err.Error()) {
			t.Fatalf("expected wrapped error, got %v", err)
		}
	})
}
