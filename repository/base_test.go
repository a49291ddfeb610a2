/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/tomoncle/bunctl/database"
	"github.com/tomoncle/bunctl/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type testAuthor struct {
	bun.BaseModel `bun:"table:test_authors,alias:ta"`
	types.Model

	Name  string      `bun:"name,notnull"`
	Email string      `bun:"email,notnull,unique"`
	Age   int         `bun:"age"`
	Books []*testBook `bun:"rel:has-many,join:id=author_id"`
}

type testBook struct {
	bun.BaseModel `bun:"table:test_books,alias:tb"`
	types.Model

	Title    string      `bun:"title,notnull"`
	AuthorID int64       `bun:"author_id"`
	Author   *testAuthor `bun:"rel:belongs-to,join:author_id=id"`
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// a single connection keeps every query on the same in-memory database
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	ctx := context.Background()
	for _, model := range []interface{}{(*testAuthor)(nil), (*testBook)(nil)} {
		if _, err := db.NewCreateTable().Model(model).Exec(ctx); err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedAuthors(t *testing.T, repo Repository[testAuthor], n int) []*testAuthor {
	t.Helper()
	authors := make([]*testAuthor, 0, n)
	for i := 1; i <= n; i++ {
		authors = append(authors, &testAuthor{
			Name:  fmt.Sprintf("author-%02d", i),
			Email: fmt.Sprintf("author-%02d@example.com", i),
			Age:   20 + i,
		})
	}
	if err := repo.Create(context.Background(), authors...); err != nil {
		t.Fatalf("seed authors: %v", err)
	}
	return authors
}

func TestCreateFillsKeysAndTimestamps(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()

	author := &testAuthor{Name: "alice", Email: "alice@example.com", Age: 30}
	if err := repo.Create(ctx, author); err != nil {
		t.Fatalf("create error: %v", err)
	}
	if author.ID == 0 {
		t.Fatal("primary key should be filled after insert")
	}
	if author.CreatedAt.IsZero() || author.UpdatedAt.IsZero() {
		t.Fatal("timestamps should be stamped on insert")
	}
}

func TestCreateDuplicateReturnsTypedError(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &testAuthor{Name: "a", Email: "dup@example.com"}); err != nil {
		t.Fatalf("first create error: %v", err)
	}
	err := repo.Create(ctx, &testAuthor{Name: "b", Email: "dup@example.com"})
	if err == nil {
		t.Fatal("expected a duplicate key error")
	}
	if !database.IsDuplicateKey(err) {
		t.Fatalf("expected duplicate key classification, got %v", err)
	}
}

func TestGetBySelector(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()
	seedAuthors(t, repo, 3)

	got, err := repo.Get(ctx, types.By("name", "author-02"))
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got.Email != "author-02@example.com" {
		t.Fatalf("unexpected row: %+v", got)
	}

	got, err = repo.Get(ctx, types.By("name", "author-02").And("age", 22))
	if err != nil {
		t.Fatalf("multi-field get error: %v", err)
	}
	if got.Name != "author-02" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestGetNotFound(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))

	_, err := repo.Get(context.Background(), types.By("name", "nobody"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetWithRelation(t *testing.T) {
	db := newTestDB(t)
	authors := NewRepository[testAuthor](db)
	books := NewRepository[testBook](db)
	ctx := context.Background()

	author := &testAuthor{Name: "alice", Email: "alice@example.com"}
	if err := authors.Create(ctx, author); err != nil {
		t.Fatalf("create author: %v", err)
	}
	if err := books.Create(ctx,
		&testBook{Title: "first", AuthorID: author.ID},
		&testBook{Title: "second", AuthorID: author.ID},
	); err != nil {
		t.Fatalf("create books: %v", err)
	}

	book, err := books.Get(ctx, types.By("title", "first"), "Author")
	if err != nil {
		t.Fatalf("get with relation: %v", err)
	}
	if book.Author == nil || book.Author.Name != "alice" {
		t.Fatalf("relation not loaded: %+v", book.Author)
	}

	loaded, err := authors.Get(ctx, types.By("id", author.ID), "Books")
	if err != nil {
		t.Fatalf("get with has-many: %v", err)
	}
	if len(loaded.Books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(loaded.Books))
	}
}

func TestListWithOperatorsAndOrder(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()
	seedAuthors(t, repo, 10) // ages 21..30

	rows, err := repo.List(ctx,
		types.Filter{"age": map[string]interface{}{"gte": 24, "lt": 28}},
		[]types.Order{types.Desc("age")},
	)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i-1].Age < rows[i].Age {
			t.Fatalf("rows not in descending age order: %d before %d", rows[i-1].Age, rows[i].Age)
		}
	}
}

func TestListMembershipAndContains(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()
	seedAuthors(t, repo, 5)

	rows, err := repo.List(ctx, types.Filter{"name": []string{"author-01", "author-04"}}, nil)
	if err != nil {
		t.Fatalf("membership list error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	rows, err = repo.List(ctx, types.Filter{"name": map[string]interface{}{"contains": "or-0"}}, nil)
	if err != nil {
		t.Fatalf("contains list error: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}

	rows, err = repo.List(ctx, types.Filter{"name": map[string]interface{}{"not-in": []string{"author-01"}}}, nil)
	if err != nil {
		t.Fatalf("not-in list error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
}

func TestPaginate(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()
	seedAuthors(t, repo, 12)

	page, err := repo.Paginate(ctx, nil, []types.Order{types.Asc("age")}, types.PageRequest{Page: 2, PerPage: 5})
	if err != nil {
		t.Fatalf("paginate error: %v", err)
	}
	if len(page.DataSet) != 5 {
		t.Fatalf("expected 5 rows in window, got %d", len(page.DataSet))
	}
	if page.TotalData != 12 || page.TotalPages != 3 {
		t.Fatalf("unexpected totals: %d rows, %d pages", page.TotalData, page.TotalPages)
	}
	if *page.Previous != 1 || *page.Next != 3 {
		t.Fatalf("unexpected neighbors: prev=%v next=%v", page.Previous, page.Next)
	}
	// window starts after the first five ages
	if page.DataSet[0].Age != 26 {
		t.Fatalf("expected window to start at age 26, got %d", page.DataSet[0].Age)
	}
}

func TestPaginateLastAndEmpty(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()
	seedAuthors(t, repo, 12)

	last, err := repo.Paginate(ctx, nil, nil, types.PageRequest{Page: 3, PerPage: 5})
	if err != nil {
		t.Fatalf("paginate error: %v", err)
	}
	if len(last.DataSet) != 2 || last.HasNext() {
		t.Fatalf("unexpected final window: %d rows, next=%v", len(last.DataSet), last.Next)
	}

	empty, err := repo.Paginate(ctx, types.Filter{"name": "nobody"}, nil, types.PageRequest{})
	if err != nil {
		t.Fatalf("paginate error: %v", err)
	}
	if empty.TotalData != 0 || len(empty.DataSet) != 0 || empty.DataSet == nil {
		t.Fatalf("unexpected empty page: %+v", empty)
	}
}

func TestUpdateChanges(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()
	seedAuthors(t, repo, 3)

	rows, err := repo.Update(ctx, types.By("name", "author-01"), map[string]interface{}{"age": 99})
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row updated, got %d", rows)
	}

	got, err := repo.Get(ctx, types.By("name", "author-01"))
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if got.Age != 99 {
		t.Fatalf("change not applied: %+v", got)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatal("updated_at should not lag created_at after update")
	}
}

func TestUpdateRejectsUnknownColumn(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()
	seedAuthors(t, repo, 1)

	if _, err := repo.Update(ctx, types.By("name", "author-01"), map[string]interface{}{"nickname": "x"}); err == nil {
		t.Fatal("unknown column should be rejected")
	}
	if _, err := repo.Update(ctx, types.By("name", "author-01"), map[string]interface{}{"age": nil}); err == nil {
		t.Fatal("all-nil changes should be rejected")
	}
}

func TestUpsertCreatesThenUpdates(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()

	created, err := repo.Upsert(ctx, types.By("email", "alice@example.com"),
		&testAuthor{Name: "alice", Email: "alice@example.com", Age: 30})
	if err != nil {
		t.Fatalf("upsert error: %v", err)
	}
	if !created {
		t.Fatal("first upsert should create")
	}

	created, err = repo.Upsert(ctx, types.By("email", "alice@example.com"),
		&testAuthor{Name: "alice cooper", Email: "alice@example.com", Age: 31})
	if err != nil {
		t.Fatalf("second upsert error: %v", err)
	}
	if created {
		t.Fatal("second upsert should update")
	}

	rows, err := repo.List(ctx, nil, nil)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(rows))
	}
	if rows[0].Name != "alice cooper" || rows[0].Age != 31 {
		t.Fatalf("update not applied: %+v", rows[0])
	}
}

func TestSaveOrUpdateOnConflict(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()

	author := &testAuthor{Name: "alice", Email: "alice@example.com", Age: 30}
	if err := repo.SaveOrUpdate(ctx, []string{"name", "age"}, []string{"email"}, author); err != nil {
		t.Fatalf("initial save error: %v", err)
	}

	replacement := &testAuthor{Name: "alice cooper", Email: "alice@example.com", Age: 31}
	if err := repo.SaveOrUpdate(ctx, []string{"name", "age"}, []string{"email"}, replacement); err != nil {
		t.Fatalf("conflicting save error: %v", err)
	}

	rows, err := repo.List(ctx, nil, nil)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single row after conflict, got %d", len(rows))
	}
	if rows[0].Name != "alice cooper" {
		t.Fatalf("conflict update not applied: %+v", rows[0])
	}
}

func TestArchive(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()
	seedAuthors(t, repo, 2)

	rows, err := repo.Archive(ctx, types.By("name", "author-01"))
	if err != nil {
		t.Fatalf("archive error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row archived, got %d", rows)
	}

	got, err := repo.Get(ctx, types.By("name", "author-01"))
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if !got.Archived {
		t.Fatal("archived flag should be set")
	}

	// archived rows remain visible unless filtered out
	active, err := repo.List(ctx, types.Filter{"archived": false}, nil)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 active row, got %d", len(active))
	}

	if _, err := repo.Archive(ctx, types.By("name", "nobody")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo := NewRepository[testAuthor](newTestDB(t))
	ctx := context.Background()
	seedAuthors(t, repo, 2)

	rows, err := repo.Delete(ctx, types.By("name", "author-02"))
	if err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 row deleted, got %d", rows)
	}
	if _, err := repo.Get(ctx, types.By("name", "author-02")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted row should be gone, got %v", err)
	}
	if _, err := repo.Delete(ctx, types.By("name", "author-02")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWithTxRollback(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository[testAuthor](db)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		t.Fatalf("begin error: %v", err)
	}
	txRepo := repo.WithTx(tx)
	if err := txRepo.Create(ctx, &testAuthor{Name: "ghost", Email: "ghost@example.com"}); err != nil {
		t.Fatalf("create in tx error: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback error: %v", err)
	}

	if _, err := repo.Get(ctx, types.By("name", "ghost")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("rolled back row should not exist, got %v", err)
	}
}

func TestWithTxCommit(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository[testAuthor](db)
	ctx := context.Background()

	err := db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return repo.WithTx(tx).Create(ctx, &testAuthor{Name: "kept", Email: "kept@example.com"})
	})
	if err != nil {
		t.Fatalf("tx error: %v", err)
	}

	if _, err := repo.Get(ctx, types.By("name", "kept")); err != nil {
		t.Fatalf("committed row should exist: %v", err)
	}
}
