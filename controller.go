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

package bunctl

import (
	"context"
	"database/sql"
	"sync"

	"github.com/tomoncle/bunctl/database"
	"github.com/tomoncle/bunctl/repository"
	"github.com/tomoncle/bunctl/types"

	"github.com/uptrace/bun"
)

// Controller exposes selector/filter based CRUD for a model type. It is the
// top-level entry point of the library: construct one per model and call its
// operations with plain selectors and filters instead of hand-written queries.
type Controller[T any] interface {
	// Get returns the single entity matched by the selector, with the named
	// relations eagerly loaded.
	Get(ctx context.Context, selector types.Selector, joins ...string) (*T, error)

	// List returns all entities matching the filter, in the given order.
	List(ctx context.Context, filter types.Filter, orders []types.Order, joins ...string) ([]*T, error)

	// Paginate returns one page of matching entities plus page metadata.
	Paginate(ctx context.Context, filter types.Filter, orders []types.Order, request types.PageRequest, joins ...string) (*types.Page[T], error)

	// Create inserts one or more entities.
	Create(ctx context.Context, entity ...*T) error

	// Update applies changes to the rows matched by the selector and
	// returns the number of rows updated.
	Update(ctx context.Context, selector types.Selector, changes map[string]interface{}) (int64, error)

	// Upsert creates the entity when the selector matches nothing,
	// otherwise updates the matched row. Reports whether a row was created.
	Upsert(ctx context.Context, selector types.Selector, entity *T) (created bool, err error)

	// SaveOrUpdate performs a dialect-native upsert updating the listed
	// fields on conflict.
	SaveOrUpdate(ctx context.Context, fields []string, conflictColumns []string, entity ...*T) error

	// Archive soft-deletes the matched rows by setting the archived flag.
	Archive(ctx context.Context, selector types.Selector) (int64, error)

	// Delete removes the matched rows.
	Delete(ctx context.Context, selector types.Selector) (int64, error)

	// WithTx returns a controller running all operations inside tx.
	WithTx(tx bun.Tx) Controller[T]

	// SelectBuilder returns a Bun select query builder for the model.
	SelectBuilder() *bun.SelectQuery

	// InsertBuilder returns a Bun insert query builder for the model.
	InsertBuilder() *bun.InsertQuery

	// UpdateBuilder returns a Bun update query builder for the model.
	UpdateBuilder() *bun.UpdateQuery

	// DeleteBuilder returns a Bun delete query builder for the model.
	DeleteBuilder() *bun.DeleteQuery
}

type baseControllerImpl[T any] struct {
	db   *bun.DB
	repo repository.Repository[T]
	once sync.Once
}

// NewController returns a Controller backed by the global database
// connection. The repository binds lazily, so controllers may be declared
// before database.InitDB runs.
func NewController[T any]() Controller[T] {
	return &baseControllerImpl[T]{}
}

// NewControllerWithDB returns a Controller backed by an explicit connection.
func NewControllerWithDB[T any](db *bun.DB) Controller[T] {
	return &baseControllerImpl[T]{db: db}
}

func (c *baseControllerImpl[T]) baseRepo() repository.Repository[T] {
	c.once.Do(func() {
		if c.repo != nil {
			return
		}
		if c.db == nil {
			c.db = database.GetDB()
		}
		c.repo = repository.NewRepository[T](c.db)
	})
	return c.repo
}

func (c *baseControllerImpl[T]) Get(ctx context.Context, selector types.Selector, joins ...string) (*T, error) {
	return c.baseRepo().Get(ctx, selector, joins...)
}

func (c *baseControllerImpl[T]) List(ctx context.Context, filter types.Filter, orders []types.Order, joins ...string) ([]*T, error) {
	return c.baseRepo().List(ctx, filter, orders, joins...)
}

func (c *baseControllerImpl[T]) Paginate(ctx context.Context, filter types.Filter, orders []types.Order, request types.PageRequest, joins ...string) (*types.Page[T], error) {
	return c.baseRepo().Paginate(ctx, filter, orders, request, joins...)
}

func (c *baseControllerImpl[T]) Create(ctx context.Context, entity ...*T) error {
	return c.baseRepo().Create(ctx, entity...)
}

func (c *baseControllerImpl[T]) Update(ctx context.Context, selector types.Selector, changes map[string]interface{}) (int64, error) {
	return c.baseRepo().Update(ctx, selector, changes)
}

func (c *baseControllerImpl[T]) Upsert(ctx context.Context, selector types.Selector, entity *T) (bool, error) {
	return c.baseRepo().Upsert(ctx, selector, entity)
}

func (c *baseControllerImpl[T]) SaveOrUpdate(ctx context.Context, fields []string, conflictColumns []string, entity ...*T) error {
	return c.baseRepo().SaveOrUpdate(ctx, fields, conflictColumns, entity...)
}

func (c *baseControllerImpl[T]) Archive(ctx context.Context, selector types.Selector) (int64, error) {
	return c.baseRepo().Archive(ctx, selector)
}

func (c *baseControllerImpl[T]) Delete(ctx context.Context, selector types.Selector) (int64, error) {
	return c.baseRepo().Delete(ctx, selector)
}

func (c *baseControllerImpl[T]) WithTx(tx bun.Tx) Controller[T] {
	return &baseControllerImpl[T]{db: c.db, repo: c.baseRepo().WithTx(tx)}
}

func (c *baseControllerImpl[T]) SelectBuilder() *bun.SelectQuery {
	return c.baseRepo().NewSelect()
}

func (c *baseControllerImpl[T]) InsertBuilder() *bun.InsertQuery {
	return c.baseRepo().NewInsert()
}

func (c *baseControllerImpl[T]) UpdateBuilder() *bun.UpdateQuery {
	return c.baseRepo().NewUpdate()
}

func (c *baseControllerImpl[T]) DeleteBuilder() *bun.DeleteQuery {
	return c.baseRepo().NewDelete()
}

// RunInTx runs fn inside a transaction on the global connection, passing a
// controller bound to that transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func RunInTx[T any](ctx context.Context, c Controller[T], fn func(ctx context.Context, tc Controller[T]) error) error {
	return database.GetDB().RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, c.WithTx(tx))
	})
}
