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

import "strings"

// QueryFilter describes a WHERE clause schema and its argument values.
// Schema uses Bun placeholders: "name LIKE ?", "grade = ?".
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// And joins filters with AND. Nil and empty filters are skipped; if nothing
// remains the result is nil, meaning "all rows".
func And(filters ...*QueryFilter) *QueryFilter {
	var parts []string
	var args []interface{}
	for _, f := range filters {
		if f.IsEmpty() {
			continue
		}
		parts = append(parts, "("+f.Schema+")")
		args = append(args, f.Args...)
	}
	switch len(parts) {
	case 0:
		return nil
	case 1:
		return &QueryFilter{Schema: strings.TrimSuffix(strings.TrimPrefix(parts[0], "("), ")"), Args: args}
	default:
		return &QueryFilter{Schema: strings.Join(parts, " AND "), Args: args}
	}
}

func (f *QueryFilter) IsEmpty() bool {
	return f == nil || strings.TrimSpace(f.Schema) == ""
}

// Selection describes a read: which columns, which rows, in which order and
// how many. The zero value selects every column of every row.
type Selection struct {
	Columns []string
	Filter  *QueryFilter
	Orders  []string // "name ASC", "grade DESC"
	Limit   int
}

// NewSelection returns a selection of the given columns.
func NewSelection(columns ...string) *Selection {
	return &Selection{Columns: columns}
}

func (s *Selection) Where(filter *QueryFilter) *Selection {
	s.Filter = And(s.Filter, filter)
	return s
}

func (s *Selection) OrderBy(orders ...string) *Selection {
	s.Orders = append(s.Orders, orders...)
	return s
}

func (s *Selection) Take(n int) *Selection {
	s.Limit = n
	return s
}
