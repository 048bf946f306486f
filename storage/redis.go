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
	"crypto/tls"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/storage/log"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// redisSchemes are the address prefixes redis.ParseURL understands. Other addresses are treated as host:port.
var redisSchemes = []string{"redis://", "rediss://", "unix://"}

// RedisConfig specifies the Redis server holding the session data (e.g. issuance flows) of the wallet.
type RedisConfig struct {
	Address  string              `koanf:"address"`
	Username string              `koanf:"username"`
	Password string              `koanf:"password"`
	Database string              `koanf:"database"`
	TLS      RedisTLSConfig      `koanf:"tls"`
	Sentinel RedisSentinelConfig `koanf:"sentinel"`
}

// RedisTLSConfig specifies the CA certificates of a Redis server connected to over TLS.
type RedisTLSConfig struct {
	TrustStoreFile string `koanf:"truststorefile"`
}

// RedisSentinelConfig specifies the Sentinels to discover the Redis master through.
type RedisSentinelConfig struct {
	Master   string   `koanf:"master"`
	Nodes    []string `koanf:"nodes"`
	Username string   `koanf:"username"`
	Password string   `koanf:"password"`
}

func (r RedisConfig) isConfigured() bool {
	return r.Address != ""
}

func (r RedisSentinelConfig) enabled() bool {
	return r.Master != "" || len(r.Nodes) > 0
}

// parse converts the configuration to client options. Username and password override the credentials in the address.
func (r RedisConfig) parse() (*redis.Options, error) {
	address := r.Address
	if !slices.ContainsFunc(redisSchemes, func(scheme string) bool { return strings.HasPrefix(address, scheme) }) {
		address = "redis://" + address
	}
	opts, err := redis.ParseURL(address)
	if err != nil {
		return nil, err
	}
	if r.Username != "" {
		opts.Username = r.Username
	}
	if r.Password != "" {
		opts.Password = r.Password
	}
	if r.TLS.TrustStoreFile == "" {
		return opts, nil
	}
	// ParseURL only sets a TLS config for the rediss:// scheme
	if opts.TLSConfig == nil {
		return nil, errors.New("TLS configured but not connecting to a Redis TLS server")
	}
	trustStore, err := core.LoadTrustStore(r.TLS.TrustStoreFile)
	if err != nil {
		return nil, fmt.Errorf("unable to load truststore for Redis database: %w", err)
	}
	opts.TLSConfig.RootCAs = trustStore.CertPool
	return opts, nil
}

// parse derives failover options from the options of the master connection, without modifying them.
func (r RedisSentinelConfig) parse(master redis.Options) (*redis.FailoverOptions, error) {
	if r.Master == "" {
		return nil, errors.New("master is not configured")
	}
	if len(r.Nodes) == 0 {
		return nil, errors.New("node addresses are not configured")
	}
	var tlsConfig *tls.Config
	if master.TLSConfig != nil {
		// the client connects to several Sentinels and the master they point to, so no single server name applies
		tlsConfig = master.TLSConfig.Clone()
		tlsConfig.ServerName = ""
	}
	return &redis.FailoverOptions{
		MasterName:       r.Master,
		SentinelAddrs:    r.Nodes,
		SentinelUsername: r.Username,
		SentinelPassword: r.Password,
		Username:         master.Username,
		Password:         master.Password,
		DB:               master.DB,
		MaxRetries:       master.MaxRetries,
		DialTimeout:      master.DialTimeout,
		ReadTimeout:      master.ReadTimeout,
		WriteTimeout:     master.WriteTimeout,
		PoolSize:         master.PoolSize,
		PoolTimeout:      master.PoolTimeout,
		MinIdleConns:     master.MinIdleConns,
		ConnMaxIdleTime:  master.ConnMaxIdleTime,
		TLSConfig:        tlsConfig,
	}, nil
}

// createRedisClient connects to the configured Redis server, or to the master of the Sentinel cluster.
func createRedisClient(config RedisConfig) (redis.UniversalClient, error) {
	opts, err := config.parse()
	if err != nil {
		return nil, err
	}
	redis.SetLogger(redisLogger{entry: log.Logger()})
	if !config.Sentinel.enabled() {
		return redis.NewClient(opts), nil
	}
	failoverOpts, err := config.Sentinel.parse(*opts)
	if err != nil {
		return nil, fmt.Errorf("unable to configure Redis Sentinel client: %w", err)
	}
	return redis.NewFailoverClient(failoverOpts), nil
}

// redisLogger writes the internal messages of the Redis client (e.g. failovers) as warnings to the storage log.
type redisLogger struct {
	entry *logrus.Entry
}

func (l redisLogger) Printf(_ context.Context, format string, v ...interface{}) {
	l.entry.Warnf(format, v...)
}
