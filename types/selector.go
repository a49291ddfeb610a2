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

// Selector locates zero-or-one record by one or more field/value pairs
// combined with AND. Field count and value count must match.
type Selector struct {
	Fields []string
	Values []interface{}
}

// By builds a single-field selector.
func By(field string, value interface{}) Selector {
	return Selector{Fields: []string{field}, Values: []interface{}{value}}
}

// ByFields builds a multi-field selector from parallel slices.
func ByFields(fields []string, values []interface{}) Selector {
	return Selector{Fields: fields, Values: values}
}

// And returns a copy of the selector with an extra field/value pair.
func (s Selector) And(field string, value interface{}) Selector {
	fields := append(append([]string{}, s.Fields...), field)
	values := append(append([]interface{}{}, s.Values...), value)
	return Selector{Fields: fields, Values: values}
}

// IsZero reports whether the selector carries no conditions.
func (s Selector) IsZero() bool {
	return len(s.Fields) == 0 && len(s.Values) == 0
}

// Validate checks the field/value pairing.
func (s Selector) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("selector requires at least one field")
	}
	if len(s.Fields) != len(s.Values) {
		return fmt.Errorf("selector fields and values length mismatch: %d != %d",
			len(s.Fields), len(s.Values))
	}
	for i, f := range s.Fields {
		if f == "" {
			return fmt.Errorf("selector field at position %d is empty", i)
		}
	}
	return nil
}

func (s Selector) String() string {
	out := ""
	for i, f := range s.Fields {
		if i > 0 {
			out += " AND "
		}
		out += fmt.Sprintf("%s = %v", f, s.Values[i])
	}
	return out
}
