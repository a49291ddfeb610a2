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
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/tomoncle/bunctl/types"

	"github.com/uptrace/bun"
)

// cond is one WHERE fragment with its arguments, ready to hand to a Bun
// query builder. Conditions are always combined with AND.
type cond struct {
	expr string
	args []interface{}
}

func selectorConds(selector types.Selector) ([]cond, error) {
	if err := selector.Validate(); err != nil {
		return nil, err
	}
	conds := make([]cond, 0, len(selector.Fields))
	for i, field := range selector.Fields {
		conds = append(conds, cond{
			expr: "? = ?",
			args: []interface{}{bun.Ident(field), selector.Values[i]},
		})
	}
	return conds, nil
}

// filterConds translates a dictionary-shaped filter into WHERE fragments.
// Columns and operators are visited in sorted order so the generated SQL
// is deterministic.
func filterConds(filter types.Filter) ([]cond, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	columns := make([]string, 0, len(filter))
	for column := range filter {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	var conds []cond
	for _, column := range columns {
		condition := filter[column]
		switch value := condition.(type) {
		case map[string]interface{}:
			operatorConds, err := operatorConds(column, value)
			if err != nil {
				return nil, err
			}
			conds = append(conds, operatorConds...)
		default:
			if isSliceValue(condition) {
				conds = append(conds, cond{
					expr: "? IN (?)",
					args: []interface{}{bun.Ident(column), bun.In(condition)},
				})
				continue
			}
			conds = append(conds, cond{
				expr: "? = ?",
				args: []interface{}{bun.Ident(column), condition},
			})
		}
	}
	return conds, nil
}

func operatorConds(column string, operators map[string]interface{}) ([]cond, error) {
	names := make([]string, 0, len(operators))
	for name := range operators {
		names = append(names, name)
	}
	sort.Strings(names)

	conds := make([]cond, 0, len(names))
	for _, op := range names {
		value := operators[op]
		c, err := operatorCond(column, op, value)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func operatorCond(column, op string, value interface{}) (cond, error) {
	ident := bun.Ident(column)

	if sqlOp, negated, ok := types.ComparisonSQL(op); ok {
		expr := fmt.Sprintf("? %s ?", sqlOp)
		if negated {
			expr = fmt.Sprintf("NOT (? %s ?)", sqlOp)
		}
		return cond{expr: expr, args: []interface{}{ident, value}}, nil
	}

	switch op {
	case types.OpIn, types.OpNotIn:
		if !isSliceValue(value) {
			return cond{}, fmt.Errorf("operator %q for column %q requires a slice, got %T", op, column, value)
		}
		expr := "? IN (?)"
		if op == types.OpNotIn {
			expr = "NOT (? IN (?))"
		}
		return cond{expr: expr, args: []interface{}{ident, bun.In(value)}}, nil
	case types.OpLike, types.OpNotLike:
		expr := "? LIKE ?"
		if op == types.OpNotLike {
			expr = "NOT (? LIKE ?)"
		}
		return cond{expr: expr, args: []interface{}{ident, value}}, nil
	case types.OpContains, types.OpNotContains:
		expr := "? LIKE ?"
		if op == types.OpNotContains {
			expr = "NOT (? LIKE ?)"
		}
		pattern := "%" + fmt.Sprintf("%v", value) + "%"
		return cond{expr: expr, args: []interface{}{ident, pattern}}, nil
	}
	return cond{}, fmt.Errorf("unknown filter operator %q for column %q", op, column)
}

func isSliceValue(value interface{}) bool {
	if value == nil {
		return false
	}
	if _, isBytes := value.([]byte); isBytes {
		return false
	}
	kind := reflect.ValueOf(value).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

func applyConds(query *bun.SelectQuery, conds []cond) *bun.SelectQuery {
	for _, c := range conds {
		query = query.Where(c.expr, c.args...)
	}
	return query
}

func applyOrders(query *bun.SelectQuery, orders []types.Order) (*bun.SelectQuery, error) {
	for _, order := range orders {
		if err := order.Validate(); err != nil {
			return nil, err
		}
		if order.Direction == types.OrderDesc {
			query = query.OrderExpr("? DESC", bun.Ident(order.Field))
		} else {
			query = query.OrderExpr("? ASC", bun.Ident(order.Field))
		}
	}
	return query, nil
}

// applyJoins eager-loads the named relations. Nested relations use the
// dotted form understood by Bun ("Author.Address").
func applyJoins(query *bun.SelectQuery, joins []string) (*bun.SelectQuery, error) {
	for _, join := range joins {
		if strings.TrimSpace(join) == "" {
			return nil, fmt.Errorf("relation name cannot be empty")
		}
		query = query.Relation(join)
	}
	return query, nil
}
