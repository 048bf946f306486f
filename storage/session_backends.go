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
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	gocachestore "github.com/eko/gocache/store/go_cache/v4"
	memcachestore "github.com/eko/gocache/store/memcache/v4"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/nuts-foundation/nuts-wallet/storage/log"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

var _ SessionDatabase = (*InMemorySessionDatabase)(nil)
var _ SessionDatabase = (*MemcachedSessionDatabase)(nil)
var _ SessionDatabase = (*RedisSessionDatabase)(nil)

// sessionStorePruneInterval is the interval at which expired in-memory entries are removed.
var sessionStorePruneInterval = 10 * time.Minute

// InMemorySessionDatabase keeps session data in process memory. It is used when no Redis or Memcached is configured,
// which limits the wallet backend to a single instance: flows started on one instance can't be completed on another.
type InMemorySessionDatabase struct {
	cacheSessionDatabase[[]byte]
}

// NewInMemorySessionDatabase creates an empty in-memory session database.
func NewInMemorySessionDatabase() *InMemorySessionDatabase {
	client := gocache.New(defaultSessionDataTTL, sessionStorePruneInterval)
	return &InMemorySessionDatabase{cacheSessionDatabase[[]byte]{
		underlying: cache.New[[]byte](gocachestore.NewGoCache(client)),
		closeFn:    client.Flush,
	}}
}

// MemcachedSessionDatabase keeps session data in one or more Memcached servers.
type MemcachedSessionDatabase struct {
	cacheSessionDatabase[[]byte]
}

// NewMemcachedSessionDatabase creates a session database using the given client, which is closed with the database.
func NewMemcachedSessionDatabase(client *memcache.Client) *MemcachedSessionDatabase {
	return &MemcachedSessionDatabase{cacheSessionDatabase[[]byte]{
		underlying: cache.New[[]byte](memcachestore.NewMemcache(client, store.WithExpiration(defaultSessionDataTTL))),
		closeFn: func() {
			_ = client.Close()
		},
	}}
}

// RedisSessionDatabase keeps session data in Redis. Keys are prefixed with the given prefix, if any.
type RedisSessionDatabase struct {
	cacheSessionDatabase[string]
}

// NewRedisSessionDatabase creates a session database using the given client, which is closed with the database.
func NewRedisSessionDatabase(client redis.UniversalClient, prefix string) *RedisSessionDatabase {
	return &RedisSessionDatabase{cacheSessionDatabase[string]{
		underlying: cache.New[string](redisstore.NewRedis(client)),
		prefix:     prefix,
		closeFn: func() {
			if err := client.Close(); err != nil {
				log.Logger().WithError(err).Error("Failed to close Redis client")
			}
		},
	}}
}
