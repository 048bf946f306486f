/*
 * Nuts node
 * Copyright (C) 2021 Nuts community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package storage

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/test/io"
	"go.etcd.io/bbolt"
)

// NewTestStorageEngine creates a configured storage engine that uses in-memory session storage.
// The engine is shut down when the test finishes.
func NewTestStorageEngine(t *testing.T) Engine {
	result := New()
	if err := result.Configure(core.ServerConfig{Datadir: io.TestDirectory(t) + "/data"}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = result.Shutdown()
	})
	return result
}

// NewTestStorageEngineRedis creates a configured storage engine that uses a miniredis server for session storage.
func NewTestStorageEngineRedis(t *testing.T) (Engine, *miniredis.Miniredis) {
	redis := miniredis.RunT(t)
	result := New().(*engine)
	result.config.Session.Redis = RedisConfig{Address: redis.Addr()}
	if err := result.Configure(core.ServerConfig{Datadir: io.TestDirectory(t) + "/data"}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = result.Shutdown()
	})
	return result, redis
}

// NewTestInMemorySessionDatabase creates a new in-memory session database that is closed when the test finishes.
func NewTestInMemorySessionDatabase(t *testing.T) *InMemorySessionDatabase {
	db := NewInMemorySessionDatabase()
	t.Cleanup(func() {
		db.close()
	})
	return db
}

// CreateTestBBoltStore opens a BBolt database at the given path without syncing to disk.
func CreateTestBBoltStore(t *testing.T, filePath string) *bbolt.DB {
	db, err := bbolt.Open(filePath, fileMode, &bbolt.Options{Timeout: lockAcquireTimeout, NoSync: true, NoFreelistSync: true, NoGrowSync: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
