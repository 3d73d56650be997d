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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/recordstore/database"
	"github.com/tomoncle/recordstore/types"
	"github.com/uptrace/bun"
)

type book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Title string `bun:"title"`
	Pages int    `bun:"pages"`
}

type titlePages struct {
	Title string `bun:"title"`
	Pages int    `bun:"pages"`
}

func openSession(t *testing.T) *Session {
	t.Helper()
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.DBName = strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())

	schema := database.NewSchema(database.NewModelAdapter((*book)(nil), 0))
	manager, err := database.Open(context.Background(), cfg, schema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Disconnect() })

	session := NewSession(manager.GetDB())
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func seedBooks(t *testing.T, repo Repository[book]) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, repo.InsertMany(ctx,
		&book{Title: "Dune", Pages: 412},
		&book{Title: "Emma", Pages: 474},
		&book{Title: "Beloved", Pages: 324},
	))
	require.NoError(t, repo.Session().Commit())
}

func TestInsertReturnsID(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[book](openSession(t))

	b := &book{Title: "Ulysses", Pages: 730}
	require.NoError(t, repo.Insert(ctx, b))
	assert.NotZero(t, b.ID)

	second := &book{Title: "Walden", Pages: 352}
	require.NoError(t, repo.Insert(ctx, second))
	assert.NotEqual(t, b.ID, second.ID)
}

func TestInsertManyDoesNotReturnIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[book](openSession(t))

	a := &book{Title: "Dune", Pages: 412}
	b := &book{Title: "Emma", Pages: 474}
	require.NoError(t, repo.InsertMany(ctx, a, b))
	require.NoError(t, repo.Session().Commit())

	assert.Zero(t, a.ID)
	assert.Zero(t, b.ID)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.NotZero(t, all[0].ID)
	assert.NotZero(t, all[1].ID)
	assert.NotEqual(t, all[0].ID, all[1].ID)

	require.NoError(t, repo.InsertMany(ctx))
}

func TestProject(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[book](openSession(t))
	seedBooks(t, repo)

	var titles []string
	require.NoError(t, repo.Project(ctx, types.NewSelection("title").OrderBy("title ASC"), &titles))
	assert.Equal(t, []string{"Beloved", "Dune", "Emma"}, titles)

	var rows []titlePages
	sel := types.NewSelection("title", "pages").OrderBy("pages DESC").Take(2)
	require.NoError(t, repo.Project(ctx, sel, &rows))
	assert.Equal(t, []titlePages{{"Emma", 474}, {"Dune", 412}}, rows)

	var filtered []string
	sel = types.NewSelection("title").Where(types.NewQueryFilter("pages < ?", 400))
	require.NoError(t, repo.Project(ctx, sel, &filtered))
	assert.Equal(t, []string{"Beloved"}, filtered)
}

func TestStatement(t *testing.T) {
	repo := NewRepository[book](openSession(t))
	sql := repo.Statement(types.NewSelection("title").OrderBy("title ASC").Take(1))
	assert.Contains(t, sql, `FROM "books" AS "b"`)
	assert.Contains(t, sql, "ORDER BY")
	assert.Contains(t, sql, "LIMIT 1")
	assert.False(t, repo.Session().InTransaction())
}

func TestListFirstAndCount(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[book](openSession(t))
	seedBooks(t, repo)

	long := types.NewQueryFilter("pages > ?", 400)
	books, err := repo.List(ctx, long, "title DESC")
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Emma", books[0].Title)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.Count(ctx, long)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := repo.First(ctx, types.NewQueryFilter("title = ?", "Dune"))
	require.NoError(t, err)
	assert.Equal(t, 412, first.Pages)

	_, err = repo.First(ctx, types.NewQueryFilter("title = ?", "Missing"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetBasedUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[book](openSession(t))
	seedBooks(t, repo)

	affected, err := repo.Update(ctx, nil, "pages = pages + ?", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, affected)

	affected, err = repo.Update(ctx, types.NewQueryFilter("title = ?", "Dune"), "pages = ?", 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)
	require.NoError(t, repo.Session().Commit())

	var pages []int
	require.NoError(t, repo.Project(ctx, types.NewSelection("pages").OrderBy("title ASC"), &pages))
	assert.Equal(t, []int{325, 1, 475}, pages)

	_, err = repo.Update(ctx, nil, "")
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[book](openSession(t))
	seedBooks(t, repo)

	dune, err := repo.First(ctx, types.NewQueryFilter("title = ?", "Dune"))
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, dune))
	require.NoError(t, repo.Session().Commit())

	assert.ErrorIs(t, repo.Delete(ctx, dune), ErrNotFound)

	affected, err := repo.DeleteWhere(ctx, types.NewQueryFilter("title = ?", "Dune"))
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = repo.DeleteWhere(ctx, types.NewQueryFilter("pages > ?", 400))
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPage(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[book](openSession(t))
	seedBooks(t, repo)

	page, err := repo.Page(ctx, types.NewPageRequest(2, 2, nil, "title ASC"))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages())
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Emma", page.Items[0].Title)

	empty, err := repo.Page(ctx, types.NewPageRequest(1, 10, types.NewQueryFilter("pages > ?", 1000)))
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Empty(t, empty.Items)
}

func TestSessionRollbackAndClose(t *testing.T) {
	ctx := context.Background()
	session := openSession(t)
	repo := NewRepository[book](session)

	require.NoError(t, repo.Insert(ctx, &book{Title: "Draft", Pages: 1}))
	assert.True(t, session.InTransaction())
	require.NoError(t, session.Rollback())
	assert.False(t, session.InTransaction())

	n, err := repo.Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, session.Commit())
	require.NoError(t, session.Close())
	require.NoError(t, session.Close())

	_, err = repo.Count(ctx, nil)
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, session.Commit(), ErrSessionClosed)
}
