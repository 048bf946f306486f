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
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
)

// defaultSessionDataTTL is the expiry of session data when a store doesn't specify one.
const defaultSessionDataTTL = 15 * time.Minute

var _ SessionStore = (*SessionStoreImpl[[]byte])(nil)
var _ SessionStore = (*SessionStoreImpl[string])(nil)

// SessionStoreImpl is a SessionStore backed by a gocache cache.
// Values are stored as JSON; T is the type the underlying store returns on Get.
type SessionStoreImpl[T []byte | string] struct {
	underlying *cache.Cache[T]
	ttl        time.Duration
	prefixes   []string
	db         SessionDatabase
}

func (s SessionStoreImpl[T]) Delete(key string) error {
	err := s.underlying.Delete(context.Background(), s.getFullKey(key))
	if err != nil && isNotFound(err) {
		return nil
	}
	return err
}

func (s SessionStoreImpl[T]) Exists(key string) bool {
	_, err := s.underlying.Get(context.Background(), s.getFullKey(key))
	return err == nil
}

func (s SessionStoreImpl[T]) Get(key string, target interface{}) error {
	val, err := s.underlying.Get(context.Background(), s.getFullKey(key))
	if err != nil {
		if isNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	if len(val) == 0 {
		return ErrNotFound
	}
	return json.Unmarshal([]byte(val), target)
}

func (s SessionStoreImpl[T]) Put(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.underlying.Set(context.Background(), s.getFullKey(key), T(data), store.WithExpiration(s.ttl))
}

func (s SessionStoreImpl[T]) getFullKey(key string) string {
	return s.db.getFullKey(s.prefixes, key)
}

// isNotFound returns true if the error indicates a missing entry.
// Memcached reports misses on delete as memcache.ErrCacheMiss, the other stores use store.NotFound.
func isNotFound(err error) bool {
	var notFound *store.NotFound
	return errors.As(err, &notFound) || errors.Is(err, memcache.ErrCacheMiss)
}

// cacheSessionDatabase is a SessionDatabase on top of a gocache cache.
// The backends only differ in the cache store, the key prefix and how their client is closed.
type cacheSessionDatabase[T []byte | string] struct {
	underlying *cache.Cache[T]
	// prefix is prepended to all keys, e.g. to share a Redis database with other applications.
	prefix  string
	closeFn func()
}

func (s cacheSessionDatabase[T]) GetStore(ttl time.Duration, keys ...string) SessionStore {
	return SessionStoreImpl[T]{
		underlying: s.underlying,
		ttl:        ttl,
		prefixes:   keys,
		db:         s,
	}
}

func (s cacheSessionDatabase[T]) getFullKey(prefixes []string, key string) string {
	if s.prefix != "" {
		prefixes = append([]string{s.prefix}, prefixes...)
	}
	return joinKey(prefixes, key)
}

func (s cacheSessionDatabase[T]) close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

func joinKey(prefixes []string, key string) string {
	parts := append(append([]string{}, prefixes...), key)
	return strings.Join(parts, "/")
}
