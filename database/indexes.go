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

package database

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// ListIndexes returns the secondary indexes that exist on table, sorted by
// name. Primary key indexes are left out. While a transaction holds the only
// pooled connection, pass that transaction as db.
func ListIndexes(ctx context.Context, db bun.IDB, table string) ([]Index, error) {
	var (
		idx []Index
		err error
	)
	switch db.Dialect().Name() {
	case dialect.PG:
		idx, err = listPostgresIndexes(ctx, db, table)
	case dialect.MySQL:
		idx, err = listMySQLIndexes(ctx, db, table)
	default:
		idx, err = listSQLiteIndexes(ctx, db, table)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(idx, func(i, j int) bool { return idx[i].Name < idx[j].Name })
	return idx, nil
}

func listPostgresIndexes(ctx context.Context, db bun.IDB, table string) ([]Index, error) {
	rows, err := db.QueryContext(ctx, `SELECT indexname, indexdef FROM pg_indexes WHERE tablename = ?`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var idx []Index
	for rows.Next() {
		var name, def string
		if err := rows.Scan(&name, &def); err != nil {
			return nil, err
		}
		if strings.EqualFold(name, table+"_pkey") {
			continue
		}
		spec := Index{Name: name, Unique: strings.Contains(strings.ToUpper(def), "UNIQUE")}
		open := strings.Index(def, "(")
		end := strings.LastIndex(def, ")")
		if open > 0 && end > open {
			for _, c := range strings.Split(def[open+1:end], ",") {
				spec.Columns = append(spec.Columns, strings.TrimSpace(strings.Trim(strings.TrimSpace(c), `"`)))
			}
		}
		idx = append(idx, spec)
	}
	return idx, rows.Err()
}

func listMySQLIndexes(ctx context.Context, db bun.IDB, table string) ([]Index, error) {
	rows, err := db.QueryContext(ctx, `SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE FROM INFORMATION_SCHEMA.STATISTICS WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? ORDER BY INDEX_NAME, SEQ_IN_INDEX`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byName := map[string]*Index{}
	var order []string
	for rows.Next() {
		var name, col string
		var nonUnique int
		if err := rows.Scan(&name, &col, &nonUnique); err != nil {
			return nil, err
		}
		if strings.EqualFold(name, "PRIMARY") {
			continue
		}
		spec, ok := byName[name]
		if !ok {
			spec = &Index{Name: name, Unique: nonUnique == 0}
			byName[name] = spec
			order = append(order, name)
		}
		spec.Columns = append(spec.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idx := make([]Index, 0, len(order))
	for _, name := range order {
		idx = append(idx, *byName[name])
	}
	return idx, nil
}

func listSQLiteIndexes(ctx context.Context, db bun.IDB, table string) ([]Index, error) {
	// The pool may hold a single connection, so index_list is drained
	// before index_info is queried.
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteLiteral(table)))
	if err != nil {
		return nil, err
	}
	var idx []Index
	for rows.Next() {
		var seq, unique int
		var name, origin string
		var partial int
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		if origin == "pk" {
			continue
		}
		idx = append(idx, Index{Name: name, Unique: unique == 1})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range idx {
		info, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteLiteral(idx[i].Name)))
		if err != nil {
			return nil, err
		}
		for info.Next() {
			var seqno, cid int
			var col string
			if err := info.Scan(&seqno, &cid, &col); err != nil {
				info.Close()
				return nil, err
			}
			idx[i].Columns = append(idx[i].Columns, col)
		}
		info.Close()
		if err := info.Err(); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
