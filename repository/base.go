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
	"fmt"

	"github.com/tomoncle/recordstore/database"
	"github.com/tomoncle/recordstore/types"

	"github.com/uptrace/bun"
)

// allRows is the WHERE clause of set-based statements without a filter;
// Bun refuses UPDATE and DELETE without one.
const allRows = "1 = 1"

type baseRepositoryImpl[T any] struct {
	session *Session
}

// NewRepository returns a generic repository whose statements run in session.
func NewRepository[T any](session *Session) Repository[T] {
	return &baseRepositoryImpl[T]{session: session}
}

func (r *baseRepositoryImpl[T]) Session() *Session { return r.session }

func (r *baseRepositoryImpl[T]) Insert(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	db, err := r.session.IDB(ctx)
	if err != nil {
		return err
	}
	_, err = db.NewInsert().Model(entity).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) InsertMany(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	db, err := r.session.IDB(ctx)
	if err != nil {
		return err
	}
	// insert copies so nothing the statement reports back reaches the caller
	rows := make([]T, 0, len(entity))
	for _, e := range entity {
		if e == nil {
			return fmt.Errorf("entity cannot be nil")
		}
		rows = append(rows, *e)
	}
	_, err = db.NewInsert().Model(&rows).Returning("NULL").Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context) ([]*T, error) {
	return r.List(ctx, nil)
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, filter *types.QueryFilter, orders ...string) ([]*T, error) {
	db, err := r.session.IDB(ctx)
	if err != nil {
		return nil, err
	}
	var entities []*T
	query := db.NewSelect().Model(&entities)
	query = applyFilter(query, filter).Order(orders...)
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) First(ctx context.Context, filter *types.QueryFilter, orders ...string) (*T, error) {
	db, err := r.session.IDB(ctx)
	if err != nil {
		return nil, err
	}
	var entity T
	query := db.NewSelect().Model(&entity)
	query = applyFilter(query, filter).Order(orders...).Limit(1)
	if err := query.Scan(ctx); err != nil {
		if database.IsSqlErrorOf(err, database.NoRowsErr) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) Project(ctx context.Context, sel *types.Selection, dest interface{}) error {
	db, err := r.session.IDB(ctx)
	if err != nil {
		return err
	}
	return r.selection(db, sel).Scan(ctx, dest)
}

func (r *baseRepositoryImpl[T]) Statement(sel *types.Selection) string {
	return r.selection(r.session.DB(), sel).String()
}

func (r *baseRepositoryImpl[T]) selection(db bun.IDB, sel *types.Selection) *bun.SelectQuery {
	query := db.NewSelect().Model((*T)(nil))
	if sel == nil {
		return query
	}
	if len(sel.Columns) > 0 {
		query = query.Column(sel.Columns...)
	}
	query = applyFilter(query, sel.Filter).Order(sel.Orders...)
	if sel.Limit > 0 {
		query = query.Limit(sel.Limit)
	}
	return query
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, filter *types.QueryFilter) (int, error) {
	db, err := r.session.IDB(ctx)
	if err != nil {
		return 0, err
	}
	return applyFilter(db.NewSelect().Model((*T)(nil)), filter).Count(ctx)
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Pagination[T], error) {
	db, err := r.session.IDB(ctx)
	if err != nil {
		return nil, err
	}
	var entities []*T
	query := applyFilter(db.NewSelect().Model(&entities), pageRequest.Filter())
	pagination := types.NewPagination[T](pageRequest)
	total, err := query.Count(ctx)
	if err != nil || total == 0 {
		return pagination, err
	}
	err = query.
		Order(pageRequest.Orders()...).
		Offset(pageRequest.Offset()).
		Limit(pageRequest.PageSize()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = entities
	return pagination, nil
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, filter *types.QueryFilter, set string, args ...interface{}) (int64, error) {
	if set == "" {
		return 0, fmt.Errorf("set expression cannot be empty")
	}
	db, err := r.session.IDB(ctx)
	if err != nil {
		return 0, err
	}
	query := db.NewUpdate().Model((*T)(nil)).Set(set, args...)
	if filter.IsEmpty() {
		query = query.Where(allRows)
	} else {
		query = query.Where(filter.Schema, filter.Args...)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	db, err := r.session.IDB(ctx)
	if err != nil {
		return err
	}
	res, err := db.NewDelete().Model(entity).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *baseRepositoryImpl[T]) DeleteWhere(ctx context.Context, filter *types.QueryFilter) (int64, error) {
	db, err := r.session.IDB(ctx)
	if err != nil {
		return 0, err
	}
	query := db.NewDelete().Model((*T)(nil))
	if filter.IsEmpty() {
		query = query.Where(allRows)
	} else {
		query = query.Where(filter.Schema, filter.Args...)
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func applyFilter(query *bun.SelectQuery, filter *types.QueryFilter) *bun.SelectQuery {
	if filter.IsEmpty() {
		return query
	}
	return query.Where(filter.Schema, filter.Args...)
}
