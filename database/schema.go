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
	"sort"
	"sync"
)

// SQLModel represents a database model materialized by migrations.
// Instance should return a struct pointer compatible with Bun, and Priority controls
// ordering when creating tables (lower values first).
type SQLModel interface {
	Instance() interface{}
	Priority() int
	Indexes() []Index
}

// Index is a secondary index created after the model's table.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// Schema is the set of models a database is expected to hold. It is built
// explicitly at startup and handed to the migration manager; there is no
// package-level registry.
type Schema struct {
	models []SQLModel
	mutex  sync.RWMutex
}

// NewSchema returns a schema holding the given models.
func NewSchema(models ...SQLModel) *Schema {
	s := &Schema{models: make([]SQLModel, 0, len(models))}
	for _, m := range models {
		s.Register(m)
	}
	return s
}

func (s *Schema) Register(model SQLModel) {
	if model == nil {
		return
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.models = append(s.models, model)
}

// Models returns the registered models sorted by ascending priority.
// Models with equal priority keep their registration order.
func (s *Schema) Models() []SQLModel {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]SQLModel, len(s.models))
	copy(result, s.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

// Instances returns the struct pointers of Models, in the same order.
func (s *Schema) Instances() []interface{} {
	models := s.Models()
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}

type ModelAdapter struct {
	instance interface{}
	priority int
	indexes  []Index
}

// NewModelAdapter wraps a struct instance, priority and optional indexes into an SQLModel.
func NewModelAdapter(instance interface{}, priority int, indexes ...Index) SQLModel {
	return &ModelAdapter{
		instance: instance,
		priority: priority,
		indexes:  indexes,
	}
}

func (a *ModelAdapter) Instance() interface{} {
	return a.instance
}

func (a *ModelAdapter) Priority() int {
	return a.priority
}

func (a *ModelAdapter) Indexes() []Index {
	return a.indexes
}
