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
	"errors"
	"time"

	"github.com/nuts-foundation/nuts-wallet/core"
	"go.etcd.io/bbolt"
)

// ErrNotFound is returned when a value is not found in a store.
var ErrNotFound = errors.New("not found")

// Engine defines the interface for the storage engine.
type Engine interface {
	core.Engine
	core.Configurable
	core.Runnable

	// GetSessionDatabase returns the SessionDatabase
	GetSessionDatabase() SessionDatabase
	// GetBBoltDB returns the BBolt database for the given module and store.
	// When identical names are passed the same database is returned.
	GetBBoltDB(moduleName string, storeName string) (*bbolt.DB, error)
}

// SessionDatabase is a non-persistent database that holds session data on a KV basis.
// Keys could be flow states, nonces, access tokens, etc.
// All entries are stored with a TTL, so they will be removed automatically.
type SessionDatabase interface {
	// GetStore returns a SessionStore with the given keys as key prefixes.
	// The keys are used to logically partition the store, eg: issuer identifiers, flow types, etc.
	// It returns a store that expires its entries after the given TTL.
	GetStore(ttl time.Duration, keys ...string) SessionStore
	// getFullKey returns the full key for the underlying storage, given the store prefixes and key.
	getFullKey(prefixes []string, key string) string
	// close stops any background processes and closes the database.
	close()
}

// SessionStore is a key-value store that holds session data.
// The SessionStore is an abstraction for underlying storage, it automatically adds prefixes for logical partitions.
type SessionStore interface {
	// Delete deletes the entry for the given key.
	// It does not return an error if the key does not exist.
	Delete(key string) error
	// Exists returns true if the key exists.
	Exists(key string) bool
	// Get returns the value for the given key.
	// Returns ErrNotFound if the key does not exist.
	Get(key string, target interface{}) error
	// Put stores the given value for the given key.
	Put(key string, value interface{}) error
}
