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

var defaultRegistry = newModelRegistry()

// MigratableModel is a database model that participates in automatic table
// creation. Instance returns a struct pointer compatible with Bun, and
// Priority controls creation order (lower values first), which matters when
// foreign keys reference earlier tables.
type MigratableModel interface {
	Instance() interface{}
	Priority() int
}

type modelRegistry struct {
	models []MigratableModel
	mutex  sync.RWMutex
}

func newModelRegistry() *modelRegistry {
	return &modelRegistry{models: make([]MigratableModel, 0)}
}

func (r *modelRegistry) add(model MigratableModel) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.models = append(r.models, model)
}

func (r *modelRegistry) sorted() []MigratableModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]MigratableModel, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

type modelEntry struct {
	instance interface{}
	priority int
}

func (e *modelEntry) Instance() interface{} { return e.instance }
func (e *modelEntry) Priority() int         { return e.priority }

// RegisterModel adds a model instance to the default registry with the given
// priority. Typically called from init functions of model packages.
func RegisterModel(instance interface{}, priority int) {
	defaultRegistry.add(&modelEntry{instance: instance, priority: priority})
}

// RegisterModels adds model instances in declaration order, all at the same
// priority tier. Relative order between them is preserved.
func RegisterModels(instances ...interface{}) {
	for _, instance := range instances {
		defaultRegistry.add(&modelEntry{instance: instance, priority: 100})
	}
}

// RegisteredModels returns all registered models sorted by ascending priority.
func RegisteredModels() []MigratableModel {
	return defaultRegistry.sorted()
}

// RegisteredModelInstances returns the underlying struct instances of all
// registered models, sorted by priority.
func RegisteredModelInstances() []interface{} {
	models := RegisteredModels()
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}
