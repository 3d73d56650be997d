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
	"errors"

	"github.com/tomoncle/recordstore/types"
)

// ErrNotFound is returned when an operation addressing specific rows finds none.
var ErrNotFound = errors.New("repository: record not found")

// WriteRepository inserts rows. Insert and InsertMany differ in what they
// report back: Insert fills generated columns such as the primary key into
// the entity, InsertMany is a single batched statement that leaves the
// caller's entities untouched.
type WriteRepository[T any] interface {
	Insert(ctx context.Context, entity *T) error
	InsertMany(ctx context.Context, entity ...*T) error
}

// QueryRepository reads rows as entities, projections or aggregates.
type QueryRepository[T any] interface {
	GetAll(ctx context.Context) ([]*T, error)

	List(ctx context.Context, filter *types.QueryFilter, orders ...string) ([]*T, error)

	// First returns the first matching entity or ErrNotFound.
	First(ctx context.Context, filter *types.QueryFilter, orders ...string) (*T, error)

	// Project scans the selected columns into dest, a pointer to a slice of
	// scalars (one column) or of structs with bun tags.
	Project(ctx context.Context, sel *types.Selection, dest interface{}) error

	Count(ctx context.Context, filter *types.QueryFilter) (int, error)

	Page(ctx context.Context, page *types.PageRequest) (*types.Pagination[T], error)

	// Statement renders the SQL a selection would run, without running it.
	Statement(sel *types.Selection) string
}

// MutationRepository changes or removes rows.
type MutationRepository[T any] interface {
	// Update runs one set-based UPDATE over the rows matching filter, all
	// rows when filter is empty, and returns the number of rows affected.
	Update(ctx context.Context, filter *types.QueryFilter, set string, args ...interface{}) (int64, error)

	// Delete removes the row of a loaded entity by primary key.
	Delete(ctx context.Context, entity *T) error

	// DeleteWhere runs one set-based DELETE and returns the rows affected.
	// Matching nothing is not an error.
	DeleteWhere(ctx context.Context, filter *types.QueryFilter) (int64, error)
}

// Repository combines writes, reads and mutations over one entity type,
// executed within a Session.
type Repository[T any] interface {
	WriteRepository[T]
	QueryRepository[T]
	MutationRepository[T]
	Session() *Session
}
