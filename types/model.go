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

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Column names the archive operation relies on.
const (
	ColumnArchived  = "archived"
	ColumnUpdatedAt = "updated_at"
	ColumnCreatedAt = "created_at"
)

// Timestamps is an embeddable mixin that maintains created_at/updated_at
// through Bun's model hooks.
type Timestamps struct {
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

var _ bun.BeforeAppendModelHook = (*Timestamps)(nil)

// BeforeAppendModel stamps timestamps before insert/update statements.
func (t *Timestamps) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
	case *bun.UpdateQuery:
		t.UpdatedAt = now
	}
	return nil
}

// Archivable is an embeddable mixin adding the soft-delete flag used by
// the archive operation.
type Archivable struct {
	Archived bool `bun:"archived,notnull,default:false" json:"archived"`
}

// Model combines timestamps and the archive flag with an auto-increment
// primary key, mirroring the common table shape this library is built
// for. Embed it next to bun.BaseModel in application models:
//
//	type Person struct {
//	    bun.BaseModel `bun:"table:persons,alias:p"`
//	    types.Model
//	    Name string `bun:"name,notnull"`
//	}
type Model struct {
	ID int64 `bun:"id,pk,autoincrement" json:"id"`
	Archivable
	Timestamps
}
