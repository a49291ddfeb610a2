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

	"github.com/tomoncle/bunctl/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// ErrNotFound is returned when a selector matches no rows for operations
// that require at least one match.
var ErrNotFound = errors.New("repository: record not found")

// CrudRepository defines selector-based CRUD operations for a generic
// entity type.
type CrudRepository[T any] interface {
	// Get returns the single entity matched by the selector, with the
	// named relations eagerly loaded. ErrNotFound when nothing matches.
	Get(ctx context.Context, selector types.Selector, joins ...string) (*T, error)

	// List returns all entities matching the filter, ordered and with
	// relations loaded.
	List(ctx context.Context, filter types.Filter, orders []types.Order, joins ...string) ([]*T, error)

	// Create inserts one or more entities, filling primary keys and
	// timestamps on the way.
	Create(ctx context.Context, entity ...*T) error

	// Update applies the non-nil entries of changes to the rows matched
	// by the selector and returns the number of rows updated.
	Update(ctx context.Context, selector types.Selector, changes map[string]interface{}) (int64, error)

	// Upsert inserts the entity when the selector matches nothing,
	// otherwise updates the matched row with the entity's non-zero
	// fields. Reports whether a new row was created.
	Upsert(ctx context.Context, selector types.Selector, entity *T) (created bool, err error)

	// SaveOrUpdate performs a dialect-native upsert (ON CONFLICT /
	// ON DUPLICATE KEY) updating the listed fields.
	SaveOrUpdate(ctx context.Context, fields []string, conflictColumns []string, entity ...*T) error

	// Archive soft-deletes the matched rows by setting the archived
	// flag. ErrNotFound when nothing matches.
	Archive(ctx context.Context, selector types.Selector) (int64, error)

	// Delete removes the matched rows. ErrNotFound when nothing matches.
	Delete(ctx context.Context, selector types.Selector) (int64, error)
}

// PageQueryRepository defines pagination over filtered listings.
type PageQueryRepository[T any] interface {
	Paginate(ctx context.Context, filter types.Filter, orders []types.Order, request types.PageRequest, joins ...string) (*types.Page[T], error)
}

// Repository combines CRUD and pagination, supports binding to a
// transaction, and exposes Bun query builders for advanced use cases.
type Repository[T any] interface {
	CrudRepository[T]
	PageQueryRepository[T]

	// WithTx returns a repository running all operations inside tx.
	WithTx(tx bun.Tx) Repository[T]

	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
