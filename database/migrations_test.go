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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/uptrace/bun"
)

type migratedWidget struct {
	bun.BaseModel `bun:"table:migrated_widgets"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`
}

func TestRunMigrationsCreatesRegisteredTables(t *testing.T) {
	db := newSeedDB(t)
	ctx := context.Background()

	RegisterModel((*migratedWidget)(nil), 1)

	mm := NewMigrationManager(db, GetLogger())
	if err := mm.RunMigrations(ctx); err != nil {
		t.Fatalf("migrations error: %v", err)
	}

	if _, err := db.NewInsert().Model(&migratedWidget{Name: "w"}).Exec(ctx); err != nil {
		t.Fatalf("registered table should exist: %v", err)
	}

	applied, err := mm.GetAppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	if len(applied) != 1 || applied[0].Version != "001" {
		t.Fatalf("unexpected migration records: %+v", applied)
	}

	// a second run is a no-op
	if err := mm.RunMigrations(ctx); err != nil {
		t.Fatalf("rerun error: %v", err)
	}
	applied, err = mm.GetAppliedMigrations(ctx)
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	if len(applied) != 1 {
		t.Fatalf("rerun should not duplicate records, got %d", len(applied))
	}
}

func TestSeedStepRunsInsideGivenTransaction(t *testing.T) {
	db := newSeedDB(t)
	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "CREATE TABLE seeded (name TEXT NOT NULL)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	root := t.TempDir()
	common := filepath.Join(root, "common")
	if err := os.MkdirAll(common, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	seed := "INSERT INTO seeded (name) VALUES ('alice');\n"
	if err := os.WriteFile(filepath.Join(common, "01_seed.sql"), []byte(seed), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	prev := globalConfig
	globalConfig = &Config{DataInitConfig: DataInitConfig{Filepath: root}}
	t.Cleanup(func() { globalConfig = prev })

	mm := NewMigrationManager(db, GetLogger())
	abort := errors.New("abort")
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := mm.seedInitialData(ctx, tx); err != nil {
			return err
		}
		count, err := tx.NewSelect().Table("seeded").Count(ctx)
		if err != nil {
			return err
		}
		if count != 1 {
			t.Fatalf("seed not visible inside transaction, got %d rows", count)
		}
		return abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("expected aborted transaction, got %v", err)
	}

	count, err := db.NewSelect().Table("seeded").Count(ctx)
	if err != nil {
		t.Fatalf("count error: %v", err)
	}
	if count != 0 {
		t.Fatalf("rolled-back seed must leave no rows, got %d", count)
	}
}

func TestRollbackMigrationNotImplemented(t *testing.T) {
	mm := NewMigrationManager(newSeedDB(t), GetLogger())
	if err := mm.RollbackMigration(context.Background(), "001"); err == nil {
		t.Fatal("rollback should report not implemented")
	}
}
