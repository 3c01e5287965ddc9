package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vietddude/postfeed/internal/core/domain"
)

func newMockRepo(t *testing.T) (*PostRepo, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := &DB{DB: sqlx.NewDb(sqlDB, "pgx")}
	return NewPostRepo(db, "posts"), mock
}

var postRowColumns = []string{
	"author", "caption", "avatar", "image", "image_alt", "place", "published_at", "likes", "comments",
}

func TestListQuery(t *testing.T) {
	table := pq.QuoteIdentifier("posts")

	q, args := listQuery(table, 0)
	want := `SELECT author, caption, avatar, image, image_alt, place, published_at, likes, comments FROM "posts" ORDER BY position, id`
	if q != want {
		t.Errorf("unexpected query:\n got %s\nwant %s", q, want)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}

	q, args = listQuery(table, 20)
	if q != want+" LIMIT $1" {
		t.Errorf("unexpected limited query: %s", q)
	}
	if len(args) != 1 || args[0] != 20 {
		t.Errorf("expected limit arg 20, got %v", args)
	}
}

func TestNewPostRepo_QuotesTable(t *testing.T) {
	r := NewPostRepo(nil, `feed"; DROP TABLE posts; --`)
	if r.table != `"feed""; DROP TABLE posts; --"` {
		t.Errorf("table was not quoted safely: %s", r.table)
	}

	if got := NewPostRepo(nil, "").table; got != `"posts"` {
		t.Errorf("expected default table, got %s", got)
	}
}

func TestPostRepo_List(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT ` + postColumns + ` FROM "posts" ORDER BY position, id LIMIT $1`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow("A", "hi", "", "https://a.test/1.jpg", "", "Utrecht", "2024-05-01T10:00:00Z", int64(5), int64(2)).
			AddRow("B", "", "", "", "", "", "", int64(0), int64(0)))

	posts, err := repo.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	want := []domain.Post{
		{Author: "A", Caption: "hi", Image: "https://a.test/1.jpg", Place: "Utrecht", Time: "2024-05-01T10:00:00Z", Likes: 5, Comments: 2},
		{Author: "B"},
	}
	if diff := cmp.Diff(want, posts); diff != "" {
		t.Errorf("posts mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostRepo_SaveBatchAppendsAfterLastPosition(t *testing.T) {
	repo, mock := newMockRepo(t)
	insert := `INSERT INTO "posts" (position, ` + postColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE(MAX(position), -1) + 1 FROM "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(int64(3)))
	mock.ExpectExec(insert).
		WithArgs(int64(3), "A", "hi", "", "", "", "", "", int64(5), int64(2)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insert).
		WithArgs(int64(4), "B", "", "", "", "", "", "", int64(0), int64(0)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.SaveBatch(context.Background(), []domain.Post{
		{Author: "A", Caption: "hi", Likes: 5, Comments: 2},
		{Author: "B"},
	})
	if err != nil {
		t.Fatalf("SaveBatch failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostRepo_SaveBatchRollsBackOnError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE(MAX(position), -1) + 1 FROM "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(int64(0)))
	mock.ExpectExec(`INSERT INTO "posts" (position, ` + postColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := repo.SaveBatch(context.Background(), []domain.Post{{Author: "A"}}); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostRepo_Count(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT COUNT(*) FROM "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := repo.Count(context.Background())
	if err != nil || n != 7 {
		t.Errorf("expected 7 posts, got %d (err %v)", n, err)
	}
}
