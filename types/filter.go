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

package types

import "fmt"

// Filter maps a column name to a match condition. Conditions on different
// columns are combined with AND. A condition value is interpreted as:
//   - a literal:          equality
//   - a slice of values:  membership (IN)
//   - an operator map:    e.g. {"gte": a, "lt": b}, all entries ANDed
type Filter map[string]interface{}

// Comparison operators accepted inside an operator map.
const (
	OpEq       = "eq"
	OpGte      = "gte"
	OpLte      = "lte"
	OpGt       = "gt"
	OpLt       = "lt"
	OpIn       = "in"
	OpContains = "contains"
	OpLike     = "like"

	OpNotEq       = "not-eq"
	OpNotGte      = "not-gte"
	OpNotLte      = "not-lte"
	OpNotGt       = "not-gt"
	OpNotLt       = "not-lt"
	OpNotIn       = "not-in"
	OpNotContains = "not-contains"
	OpNotLike     = "not-like"
)

var comparisonOps = map[string]string{
	OpEq:     "=",
	OpGte:    ">=",
	OpLte:    "<=",
	OpGt:     ">",
	OpLt:     "<",
	OpNotEq:  "<>",
	OpNotGte: ">=",
	OpNotLte: "<=",
	OpNotGt:  ">",
	OpNotLt:  "<",
}

// ComparisonSQL returns the SQL comparison operator for op along with
// whether the condition must be negated. The second return is false for
// operators that are not simple comparisons (in, like, contains).
func ComparisonSQL(op string) (sqlOp string, negated bool, ok bool) {
	sqlOp, ok = comparisonOps[op]
	if !ok {
		return "", false, false
	}
	// "<>" already carries its own negation
	negated = len(op) > 4 && op[:4] == "not-" && op != OpNotEq
	return sqlOp, negated, true
}

// IsNegated reports whether op is one of the "not-" operators.
func IsNegated(op string) bool {
	return len(op) > 4 && op[:4] == "not-"
}

// KnownOperator reports whether op belongs to the supported operator set.
func KnownOperator(op string) bool {
	switch op {
	case OpEq, OpGte, OpLte, OpGt, OpLt, OpIn, OpContains, OpLike,
		OpNotEq, OpNotGte, OpNotLte, OpNotGt, OpNotLt, OpNotIn,
		OpNotContains, OpNotLike:
		return true
	}
	return false
}

// Validate rejects empty column names and unknown operators up front so
// that broken filters fail before reaching the database.
func (f Filter) Validate() error {
	for column, condition := range f {
		if column == "" {
			return fmt.Errorf("filter column name cannot be empty")
		}
		ops, isMap := condition.(map[string]interface{})
		if !isMap {
			continue
		}
		if len(ops) == 0 {
			return fmt.Errorf("filter for column %q has no operators", column)
		}
		for op := range ops {
			if !KnownOperator(op) {
				return fmt.Errorf("unknown filter operator %q for column %q", op, column)
			}
		}
	}
	return nil
}

// Sort directions.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Order is a single sort instruction. Orders apply in slice order; a map
// keyed by field would not preserve ordering.
type Order struct {
	Field     string
	Direction string
}

// Asc builds an ascending order instruction.
func Asc(field string) Order { return Order{Field: field, Direction: OrderAsc} }

// Desc builds a descending order instruction.
func Desc(field string) Order { return Order{Field: field, Direction: OrderDesc} }

// Validate checks the order field and direction.
func (o Order) Validate() error {
	if o.Field == "" {
		return fmt.Errorf("order field cannot be empty")
	}
	switch o.Direction {
	case OrderAsc, OrderDesc, "":
		return nil
	}
	return fmt.Errorf("invalid order direction %q for field %q", o.Direction, o.Field)
}
