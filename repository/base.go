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
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/tomoncle/bunctl/database"
	"github.com/tomoncle/bunctl/types"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db  *bun.DB
	idb bun.IDB
}

// NewRepository returns a generic repository backed by the provided Bun DB.
func NewRepository[T any](db *bun.DB) Repository[T] {
	return &baseRepositoryImpl[T]{db: db, idb: db}
}

func (r *baseRepositoryImpl[T]) WithTx(tx bun.Tx) Repository[T] {
	return &baseRepositoryImpl[T]{db: r.db, idb: tx}
}

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.idb.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.idb.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.idb.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.idb.NewDelete() }

func (r *baseRepositoryImpl[T]) table() *schema.Table {
	return r.db.Table(reflect.TypeOf((*T)(nil)).Elem())
}

func (r *baseRepositoryImpl[T]) hasColumn(name string) bool {
	_, ok := r.table().FieldMap[name]
	return ok
}

func (r *baseRepositoryImpl[T]) modelName() string {
	return r.table().TypeName
}

func (r *baseRepositoryImpl[T]) Get(ctx context.Context, selector types.Selector, joins ...string) (*T, error) {
	conds, err := selectorConds(selector)
	if err != nil {
		return nil, err
	}

	var entity T
	query := r.idb.NewSelect().Model(&entity)
	if query, err = applyJoins(query, joins); err != nil {
		return nil, err
	}
	query = applyConds(query, conds)

	if err := query.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s with %s: %w", r.modelName(), selector, ErrNotFound)
		}
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, filter types.Filter, orders []types.Order, joins ...string) ([]*T, error) {
	conds, err := filterConds(filter)
	if err != nil {
		return nil, err
	}

	var entities []*T
	query := r.idb.NewSelect().Model(&entities)
	if query, err = applyJoins(query, joins); err != nil {
		return nil, err
	}
	query = applyConds(query, conds)
	if query, err = applyOrders(query, orders); err != nil {
		return nil, err
	}

	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Paginate(ctx context.Context, filter types.Filter, orders []types.Order, request types.PageRequest, joins ...string) (*types.Page[T], error) {
	request, err := request.Normalize()
	if err != nil {
		return nil, err
	}
	conds, err := filterConds(filter)
	if err != nil {
		return nil, err
	}

	// relations are irrelevant to the row count
	total, err := applyConds(r.idb.NewSelect().Model((*T)(nil)), conds).Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return types.NewPage[T](nil, request, 0), nil
	}

	var entities []*T
	query := r.idb.NewSelect().Model(&entities)
	if query, err = applyJoins(query, joins); err != nil {
		return nil, err
	}
	query = applyConds(query, conds)
	if query, err = applyOrders(query, orders); err != nil {
		return nil, err
	}

	err = query.
		Offset(request.Offset()).
		Limit(request.PerPage).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return types.NewPage(entities, request, total), nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	if len(entity) == 0 {
		return fmt.Errorf("create requires at least one entity")
	}
	entities := make([]*T, len(entity))
	copy(entities, entity)
	if _, err := r.idb.NewInsert().Model(&entities).Exec(ctx); err != nil {
		return database.WrapWriteError(r.modelName(), err)
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, selector types.Selector, changes map[string]interface{}) (int64, error) {
	conds, err := selectorConds(selector)
	if err != nil {
		return 0, err
	}

	columns := make([]string, 0, len(changes))
	for column, value := range changes {
		if value == nil {
			continue
		}
		if !r.hasColumn(column) {
			return 0, fmt.Errorf("%s has no column %q", r.modelName(), column)
		}
		columns = append(columns, column)
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("update of %s requires at least one non-nil change", r.modelName())
	}
	sort.Strings(columns)

	query := r.idb.NewUpdate().Model((*T)(nil))
	for _, column := range columns {
		query = query.Set("? = ?", bun.Ident(column), changes[column])
	}
	if _, changed := changes[types.ColumnUpdatedAt]; !changed && r.hasColumn(types.ColumnUpdatedAt) {
		query = query.Set("? = ?", bun.Ident(types.ColumnUpdatedAt), time.Now().UTC())
	}
	for _, c := range conds {
		query = query.Where(c.expr, c.args...)
	}

	result, err := query.Exec(ctx)
	if err != nil {
		return 0, database.WrapWriteError(r.modelName(), err)
	}
	return result.RowsAffected()
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, selector types.Selector, entity *T) (bool, error) {
	if entity == nil {
		return false, fmt.Errorf("upsert requires an entity")
	}
	if selector.IsZero() {
		return true, r.Create(ctx, entity)
	}

	if _, err := r.Get(ctx, selector); err != nil {
		if errors.Is(err, ErrNotFound) {
			return true, r.Create(ctx, entity)
		}
		return false, err
	}

	conds, err := selectorConds(selector)
	if err != nil {
		return false, err
	}
	query := r.idb.NewUpdate().Model(entity).OmitZero()
	for _, c := range conds {
		query = query.Where(c.expr, c.args...)
	}
	if _, err := query.Exec(ctx); err != nil {
		return false, database.WrapWriteError(r.modelName(), err)
	}
	return false, nil
}

func (r *baseRepositoryImpl[T]) SaveOrUpdate(ctx context.Context, fields []string, conflictColumns []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	if len(entity) == 0 {
		return fmt.Errorf("save requires at least one entity")
	}
	entities := make([]*T, len(entity))
	copy(entities, entity)

	switch {
	case r.db.HasFeature(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, fields, conflictColumns, entities)
	case r.db.HasFeature(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, fields, entities)
	default:
		return r.upsertFallback(ctx, entities)
	}
}

func (r *baseRepositoryImpl[T]) upsertOnDuplicateKey(ctx context.Context, fields []string, entities []*T) error {
	assignments := make([]string, 0, len(fields))
	for _, field := range fields {
		assignments = append(assignments, fmt.Sprintf("%s = VALUES(%s)", bun.Ident(field), bun.Ident(field)))
	}
	_, err := r.idb.NewInsert().
		Model(&entities).
		On("DUPLICATE KEY UPDATE " + strings.Join(assignments, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, fields []string, conflictColumns []string, entities []*T) error {
	if len(conflictColumns) == 0 {
		conflictColumns = []string{"id"}
	}
	assignments := make([]string, 0, len(fields))
	for _, field := range fields {
		assignments = append(assignments, fmt.Sprintf("%s = EXCLUDED.%s", bun.Ident(field), bun.Ident(field)))
	}
	_, err := r.idb.NewInsert().
		Model(&entities).
		On("CONFLICT ("+strings.Join(conflictColumns, ",")+") DO UPDATE").
		Set(strings.Join(assignments, ", ")).
		Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, entities []*T) error {
	for _, entity := range entities {
		if _, err := r.idb.NewInsert().Model(entity).Exec(ctx); err != nil {
			if _, updateErr := r.idb.NewUpdate().Model(entity).WherePK().Exec(ctx); updateErr != nil {
				return fmt.Errorf("upsert of %s failed: insert error: %v, update error: %v",
					r.modelName(), err, updateErr)
			}
		}
	}
	return nil
}

func (r *baseRepositoryImpl[T]) Archive(ctx context.Context, selector types.Selector) (int64, error) {
	if !r.hasColumn(types.ColumnArchived) {
		return 0, fmt.Errorf("%s does not support archiving: no %q column", r.modelName(), types.ColumnArchived)
	}
	conds, err := selectorConds(selector)
	if err != nil {
		return 0, err
	}

	query := r.idb.NewUpdate().
		Model((*T)(nil)).
		Set("? = ?", bun.Ident(types.ColumnArchived), true)
	if r.hasColumn(types.ColumnUpdatedAt) {
		query = query.Set("? = ?", bun.Ident(types.ColumnUpdatedAt), time.Now().UTC())
	}
	for _, c := range conds {
		query = query.Where(c.expr, c.args...)
	}

	result, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, fmt.Errorf("%s with %s: %w", r.modelName(), selector, ErrNotFound)
	}
	return rows, nil
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, selector types.Selector) (int64, error) {
	conds, err := selectorConds(selector)
	if err != nil {
		return 0, err
	}

	query := r.idb.NewDelete().Model((*T)(nil))
	for _, c := range conds {
		query = query.Where(c.expr, c.args...)
	}

	result, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if rows == 0 {
		return 0, fmt.Errorf("%s with %s: %w", r.modelName(), selector, ErrNotFound)
	}
	return rows, nil
}
