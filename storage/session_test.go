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
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/daangn/minimemcached"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "keyname"

type testType struct {
	Message  string
	Audience string
}

var testValue = testType{
	Message:  "Hello!",
	Audience: "World",
}

type testStruct struct {
	Field1 string `json:"field1"`
}

func sessionDatabases(t *testing.T) map[string]SessionDatabase {
	redisServer := miniredis.RunT(t)
	redisDB := NewRedisSessionDatabase(redis.NewClient(&redis.Options{Addr: redisServer.Addr()}), "")
	t.Cleanup(redisDB.close)

	memcachedDB := NewMemcachedSessionDatabase(newTestMemcachedClient(t))
	t.Cleanup(memcachedDB.close)

	return map[string]SessionDatabase{
		"in-memory": NewTestInMemorySessionDatabase(t),
		"redis":     redisDB,
		"memcached": memcachedDB,
	}
}

func TestSessionStore(t *testing.T) {
	for name, sessions := range sessionDatabases(t) {
		t.Run(name, func(t *testing.T) {
			t.Run("lifecycle", func(t *testing.T) {
				store := sessions.GetStore(time.Minute, "unit")

				var actual testType
				assert.False(t, store.Exists(testKey))
				assert.NoError(t, store.Put(testKey, testValue))
				assert.True(t, store.Exists(testKey))
				assert.NoError(t, store.Get(testKey, &actual))
				assert.Equal(t, "Hello!", actual.Message)
				assert.Equal(t, "World", actual.Audience)
				assert.NoError(t, store.Delete(testKey))
				assert.False(t, store.Exists(testKey))
			})
			t.Run("struct value is retrieved correctly", func(t *testing.T) {
				store := sessions.GetStore(time.Minute, "structs")
				value := testStruct{Field1: "value"}
				require.NoError(t, store.Put(testKey, value))
				var actual testStruct

				err := store.Get(testKey, &actual)

				require.NoError(t, err)
				assert.Equal(t, value, actual)
			})
			t.Run("value is overwritten", func(t *testing.T) {
				store := sessions.GetStore(time.Minute, "overwrite")
				require.NoError(t, store.Put(testKey, "first"))
				require.NoError(t, store.Put(testKey, "second"))
				var actual string

				require.NoError(t, store.Get(testKey, &actual))

				assert.Equal(t, "second", actual)
			})
			t.Run("non-existing key", func(t *testing.T) {
				store := sessions.GetStore(time.Minute, "storename")
				var actual testType

				err := store.Get(testKey, &actual)

				assert.ErrorIs(t, err, ErrNotFound)
			})
			t.Run("delete non-existing key", func(t *testing.T) {
				store := sessions.GetStore(time.Minute, "storename")

				err := store.Delete("does-not-exist")

				assert.NoError(t, err)
			})
			t.Run("stores are partitioned by prefix", func(t *testing.T) {
				store := sessions.GetStore(time.Minute, "unit", "one")
				otherStore := sessions.GetStore(time.Minute, "unit", "other")
				require.NoError(t, otherStore.Put(testKey, testValue))

				require.NoError(t, store.Delete(testKey))

				assert.False(t, store.Exists(testKey))
				assert.True(t, otherStore.Exists(testKey))
			})
			t.Run("value is not JSON", func(t *testing.T) {
				store := sessions.GetStore(time.Minute, "unit")

				err := store.Put(testKey, make(chan int))

				assert.Error(t, err)
			})
		})
	}
}

func TestInMemorySessionDatabase_GetStore(t *testing.T) {
	db := NewTestInMemorySessionDatabase(t)

	store := db.GetStore(time.Minute, "key1", "key2").(SessionStoreImpl[[]byte])

	assert.Equal(t, time.Minute, store.ttl)
	assert.Equal(t, []string{"key1", "key2"}, store.prefixes)
	assert.Equal(t, "key1/key2/key", store.getFullKey("key"))
}

func TestInMemorySessionStore_expiry(t *testing.T) {
	db := NewTestInMemorySessionDatabase(t)
	store := db.GetStore(time.Millisecond, "prefix")
	require.NoError(t, store.Put(testKey, testValue))

	time.Sleep(5 * time.Millisecond)

	var actual testType
	assert.ErrorIs(t, store.Get(testKey, &actual), ErrNotFound)
	assert.False(t, store.Exists(testKey))
}

func TestRedisSessionStore_expiry(t *testing.T) {
	redisServer := miniredis.RunT(t)
	db := NewRedisSessionDatabase(redis.NewClient(&redis.Options{Addr: redisServer.Addr()}), "")
	t.Cleanup(db.close)
	store := db.GetStore(time.Minute, "otherstore")
	require.NoError(t, store.Put(testKey, testValue))

	redisServer.FastForward(2 * time.Minute) // cause the entry to expire

	var actual testType
	assert.ErrorIs(t, store.Get(testKey, &actual), ErrNotFound)
}

func TestRedisSessionDatabase_prefix(t *testing.T) {
	redisServer := miniredis.RunT(t)
	t.Run("with database prefix", func(t *testing.T) {
		db := NewRedisSessionDatabase(redis.NewClient(&redis.Options{Addr: redisServer.Addr()}), "wallet")
		t.Cleanup(db.close)

		require.NoError(t, db.GetStore(time.Minute, "vcr", "flows").Put("id", "value"))

		assert.True(t, redisServer.Exists("wallet/vcr/flows/id"))
	})
	t.Run("without database prefix", func(t *testing.T) {
		db := NewRedisSessionDatabase(redis.NewClient(&redis.Options{Addr: redisServer.Addr()}), "")
		t.Cleanup(db.close)

		require.NoError(t, db.GetStore(time.Minute, "vcr", "flows").Put("id", "value"))

		assert.True(t, redisServer.Exists("vcr/flows/id"))
	})
}

func Test_newMemcachedClient(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		client := newTestMemcachedClient(t)

		assert.NotNil(t, client)
	})
	t.Run("no servers", func(t *testing.T) {
		client, err := newMemcachedClient(MemcachedConfig{})

		assert.Nil(t, client)
		assert.EqualError(t, err, "no memcached servers configured")
	})
}

func newTestMemcachedClient(t *testing.T) *memcache.Client {
	port, err := getRandomAvailablePort()
	if err != nil {
		t.Fatal(err)
	}
	m, err := minimemcached.Run(&minimemcached.Config{Port: uint16(port)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(m.Close)
	client, err := newMemcachedClient(MemcachedConfig{Address: []string{
		fmt.Sprintf("localhost:%d", m.Port()),
	}})
	require.NoError(t, err)
	return client
}

func getRandomAvailablePort() (int, error) {
	listener, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port, nil
}
