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
)

// DefaultConfig returns the default configuration for the storage engine.
func DefaultConfig() Config {
	return Config{
		BBolt: BBoltConfig{
			Backup: BBoltBackupConfig{
				Interval: 0,
			},
		},
		Session: SessionConfig{
			Memcached: MemcachedConfig{},
			Redis:     RedisConfig{},
		},
	}
}

// Config specifies config for the storage engine.
type Config struct {
	BBolt   BBoltConfig   `koanf:"bbolt"`
	Session SessionConfig `koanf:"session"`
}

// SessionConfig specifies config for the session storage engine.
type SessionConfig struct {
	Memcached MemcachedConfig `koanf:"memcached"`
	Redis     RedisConfig     `koanf:"redis"`
}

func (c Config) validate() error {
	if c.Session.Memcached.isConfigured() && c.Session.Redis.isConfigured() {
		return errors.New("only one of 'storage.session.memcached' and 'storage.session.redis' can be configured")
	}
	return nil
}

// BBoltConfig specifies config for BBolt databases.
type BBoltConfig struct {
	// Backup specifies backup config for the database.
	Backup BBoltBackupConfig `koanf:"backup"`
}

// BBoltBackupConfig specifies config for BBolt database backups.
type BBoltBackupConfig struct {
	// Directory specifies the directory in which the BBolt backup should be written.
	Directory string `koanf:"directory"`
	// Interval specifies the time between backups.
	Interval time.Duration `koanf:"interval"`
}

// Enabled returns whether backups are enabled for BBolt.
func (b BBoltBackupConfig) Enabled() bool {
	return b.Interval > 0 && len(b.Directory) > 0
}
