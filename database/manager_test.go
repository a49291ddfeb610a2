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
	"testing"
	"time"
)

func newSQLiteManager(t *testing.T) AbstractDatabaseManager {
	t.Helper()
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = ":memory:"
	cfg.HealthCheckInterval = 0 // no background checker in tests

	manager := NewDatabaseManager(cfg)
	if err := manager.Connect(context.Background()); err != nil {
		t.Fatalf("connect error: %v", err)
	}
	t.Cleanup(func() { _ = manager.Disconnect() })
	return manager
}

func TestManagerConnectAndPing(t *testing.T) {
	manager := newSQLiteManager(t)
	ctx := context.Background()

	if err := manager.Ping(ctx); err != nil {
		t.Fatalf("ping error: %v", err)
	}
	if manager.GetDB() == nil || manager.GetSQLDB() == nil {
		t.Fatal("connected manager should expose both handles")
	}
}

func TestManagerHealthCheck(t *testing.T) {
	manager := newSQLiteManager(t)

	status := manager.HealthCheck(context.Background())
	if !status.Healthy || !status.Connected {
		t.Fatalf("expected a healthy status, got %+v", status)
	}
	if status.ResponseTime < 0 {
		t.Fatalf("response time should be non-negative, got %v", status.ResponseTime)
	}
	if status.LastCheckTime.IsZero() || time.Since(status.LastCheckTime) > time.Minute {
		t.Fatalf("unexpected check time: %v", status.LastCheckTime)
	}
}

func TestManagerStats(t *testing.T) {
	manager := newSQLiteManager(t)

	stats := manager.GetStats()
	if stats == nil {
		t.Fatal("stats should not be nil")
	}
	if stats.MaxOpenConns == 0 {
		t.Fatalf("pool limits should be applied, got %+v", stats)
	}
}

func TestManagerDisconnectedHealth(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = ":memory:"
	manager := NewDatabaseManager(cfg)

	status := manager.HealthCheck(context.Background())
	if status.Healthy || status.Connected {
		t.Fatalf("unconnected manager should be unhealthy, got %+v", status)
	}
}

func TestManagerRejectsUnknownType(t *testing.T) {
	cfg := DefaultConnectionConfig()
	cfg.Type = "oracle"
	manager := NewDatabaseManager(cfg)
	if err := manager.Connect(context.Background()); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
