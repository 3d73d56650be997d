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

package student

import "github.com/tomoncle/recordstore/database"

const (
	TableName = "students"
	IndexName = "index_name"
)

// Model describes the students table and its name index for migrations.
func Model() database.SQLModel {
	return database.NewModelAdapter((*Student)(nil), 0,
		database.Index{Name: IndexName, Columns: []string{"name"}},
	)
}

// NewSchema returns the schema of a student store.
func NewSchema() *database.Schema {
	return database.NewSchema(Model())
}
