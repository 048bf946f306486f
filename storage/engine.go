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
	"fmt"
	"path"
	"time"

	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/storage/log"
	"go.etcd.io/bbolt"
)

const storeShutdownTimeout = 5 * time.Second

// New creates a new instance of the storage engine.
func New() Engine {
	return &engine{
		config: DefaultConfig(),
	}
}

type engine struct {
	datadir         string
	config          Config
	bbolt           *bboltDatabase
	sessionDatabase SessionDatabase
}

func (e *engine) Config() interface{} {
	return &e.config
}

// Name returns the name of the engine.
func (e *engine) Name() string {
	return "Storage"
}

// ConfigKey returns the key of the engine's config section.
func (e *engine) ConfigKey() string {
	return "storage"
}

func (e *engine) Start() error {
	return nil
}

func (e *engine) Shutdown() error {
	shutdownComplete := make(chan struct{})
	go func() {
		if e.bbolt != nil {
			e.bbolt.close()
		}
		if e.sessionDatabase != nil {
			e.sessionDatabase.close()
		}
		close(shutdownComplete)
	}()
	select {
	case <-shutdownComplete:
		return nil
	case <-time.After(storeShutdownTimeout):
		return errors.New("timeout while waiting for stores to close")
	}
}

func (e *engine) Configure(config core.ServerConfig) error {
	if err := e.config.validate(); err != nil {
		return err
	}
	e.datadir = config.Datadir
	e.bbolt = createBBoltDatabase(path.Join(e.datadir, "bbolt"), e.config.BBolt)

	// session storage
	redisConfig := e.config.Session.Redis
	memcachedConfig := e.config.Session.Memcached
	switch {
	case redisConfig.isConfigured():
		client, err := createRedisClient(redisConfig)
		if err != nil {
			return fmt.Errorf("unable to configure Redis session storage: %w", err)
		}
		log.Logger().Info("Redis session storage support enabled.")
		e.sessionDatabase = NewRedisSessionDatabase(client, redisConfig.Database)
	case memcachedConfig.isConfigured():
		client, err := newMemcachedClient(memcachedConfig)
		if err != nil {
			return fmt.Errorf("unable to configure Memcached session storage: %w", err)
		}
		log.Logger().Info("Memcached session storage support enabled.")
		e.sessionDatabase = NewMemcachedSessionDatabase(client)
	default:
		e.sessionDatabase = NewInMemorySessionDatabase()
	}
	return nil
}

func (e *engine) GetSessionDatabase() SessionDatabase {
	return e.sessionDatabase
}

func (e *engine) GetBBoltDB(moduleName string, storeName string) (*bbolt.DB, error) {
	if e.bbolt == nil {
		return nil, errors.New("storage engine not configured")
	}
	return e.bbolt.getStore(moduleName, storeName)
}
