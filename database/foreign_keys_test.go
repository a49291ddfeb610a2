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
	"os"
	"path/filepath"
	"testing"
)

func TestForeignKeyConstraintSQL(t *testing.T) {
	fk := ForeignKeyConstraint{
		Table:           "books",
		Column:          "author_id",
		ReferenceTable:  "authors",
		ReferenceColumn: "id",
		OnDelete:        "CASCADE",
	}
	if name := fk.GenerateConstraintName(); name != "fk_books_author_id" {
		t.Fatalf("unexpected derived name: %q", name)
	}

	sql := fk.GenerateSQL()
	want := "ALTER TABLE books ADD CONSTRAINT fk_books_author_id FOREIGN KEY (author_id) REFERENCES authors(id) ON DELETE CASCADE"
	if sql != want {
		t.Fatalf("unexpected SQL:\n got  %s\n want %s", sql, want)
	}

	fk.ConstraintName = "fk_custom"
	if name := fk.GenerateConstraintName(); name != "fk_custom" {
		t.Fatalf("explicit name should win, got %q", name)
	}
}

func TestValidateConstraints(t *testing.T) {
	fkm := &ForeignKeyManager{constraints: []ForeignKeyConstraint{
		{Table: "books", Column: "author_id", ReferenceTable: "authors", ReferenceColumn: "id", OnDelete: "CASCADE", OnUpdate: "RESTRICT"},
	}}
	if errs := fkm.ValidateConstraints(); len(errs) != 0 {
		t.Fatalf("valid constraint rejected: %v", errs)
	}

	fkm.constraints = []ForeignKeyConstraint{
		{Table: "", Column: "", ReferenceTable: "", ReferenceColumn: "", OnDelete: "EXPLODE"},
	}
	errs := fkm.ValidateConstraints()
	if len(errs) != 5 {
		t.Fatalf("expected 5 validation errors, got %d: %v", len(errs), errs)
	}
}

func TestConfigurableForeignKeyManagerLoadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foreign_keys.yaml")
	body := `
foreign_keys:
  - table: books
    column: author_id
    reference_table: authors
    reference_column: id
    on_delete: CASCADE
    constraint_name: fk_books_author
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	manager, err := NewConfigurableForeignKeyManager(GetLogger(), path)
	if err != nil {
		t.Fatalf("manager error: %v", err)
	}
	constraints := manager.ListAllConstraints()
	if len(constraints) != 1 {
		t.Fatalf("expected 1 constraint, got %d", len(constraints))
	}
	if constraints[0].ConstraintName != "fk_books_author" || constraints[0].OnDelete != "CASCADE" {
		t.Fatalf("unexpected constraint: %+v", constraints[0])
	}

	byTable := manager.GetConstraintsByTable("BOOKS")
	if len(byTable) != 1 {
		t.Fatalf("table lookup should be case-insensitive, got %d", len(byTable))
	}
}

func TestConfigurableForeignKeyManagerMissingFile(t *testing.T) {
	manager, err := NewConfigurableForeignKeyManager(GetLogger(), filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing config should fall back, got %v", err)
	}
	if len(manager.ListAllConstraints()) != 0 {
		t.Fatalf("fallback should carry no constraints, got %d", len(manager.ListAllConstraints()))
	}
}

func TestExportAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fk", "constraints.yaml")

	manager, err := NewConfigurableForeignKeyManager(GetLogger(), path)
	if err != nil {
		t.Fatalf("manager error: %v", err)
	}
	manager.constraints = []ForeignKeyConstraint{
		{Table: "books", Column: "author_id", ReferenceTable: "authors", ReferenceColumn: "id"},
	}
	if err := manager.ExportToConfig(path); err != nil {
		t.Fatalf("export error: %v", err)
	}

	if err := manager.ReloadConfig(); err != nil {
		t.Fatalf("reload error: %v", err)
	}
	constraints := manager.ListAllConstraints()
	if len(constraints) != 1 || constraints[0].Table != "books" {
		t.Fatalf("round-trip lost constraints: %+v", constraints)
	}
}
