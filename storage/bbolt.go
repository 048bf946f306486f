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
	"errors"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/storage/log"
	"go.etcd.io/bbolt"
)

const (
	fileMode         = 0640
	bboltDbExtension = ".db"
	// lockAcquireTimeout is the maximum time to wait for the file lock, held by another process using the same datadir.
	lockAcquireTimeout = time.Second
)

// bboltDatabase manages the BBolt files of the wallet (credentials, holder keys, presentation records),
// stored as <datadir>/<module>/<store>.db. Files are opened on first use and optionally backed up periodically.
type bboltDatabase struct {
	datadir string
	config  BBoltConfig

	mux    sync.Mutex
	stores map[string]*bbolt.DB

	ctx     context.Context
	cancel  context.CancelFunc
	backups sync.WaitGroup
}

func createBBoltDatabase(datadir string, config BBoltConfig) *bboltDatabase {
	ctx, cancel := context.WithCancel(context.Background())
	return &bboltDatabase{
		datadir: datadir,
		config:  config,
		stores:  map[string]*bbolt.DB{},
		ctx:     ctx,
		cancel:  cancel,
	}
}

// getStore returns the BBolt database of the given module and store, opening it if it wasn't opened before.
func (b *bboltDatabase) getStore(moduleName string, storeName string) (*bbolt.DB, error) {
	name := path.Join(moduleName, storeName)
	b.mux.Lock()
	defer b.mux.Unlock()
	if db, ok := b.stores[name]; ok {
		return db, nil
	}
	logger := log.Logger().WithField(core.LogFieldStore, name)
	logger.Debug("Opening BBolt store")
	filePath := path.Join(b.datadir, name) + bboltDbExtension
	if err := os.MkdirAll(path.Dir(filePath), os.ModePerm); err != nil {
		return nil, fmt.Errorf("unable to open BBolt store (store=%s): %w", name, err)
	}
	db, err := bbolt.Open(filePath, fileMode, &bbolt.Options{Timeout: lockAcquireTimeout})
	if err != nil {
		return nil, fmt.Errorf("unable to open BBolt store (store=%s): %w", name, err)
	}
	b.stores[name] = db
	if b.config.Backup.Enabled() {
		logger.Infof("BBolt store will be backed up every %s", b.config.Backup.Interval)
		b.backups.Add(1)
		go b.backupLoop(name, db)
	}
	return db, nil
}

func (b *bboltDatabase) backupLoop(name string, db *bbolt.DB) {
	defer b.backups.Done()
	ticker := time.NewTicker(b.config.Backup.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-b.ctx.Done():
			return
		case <-ticker.C:
			if err := b.performBackup(name, db); err != nil {
				log.Logger().WithError(err).WithField(core.LogFieldStore, name).Error("Unable to complete BBolt backup")
			}
		}
	}
}

// performBackup writes a consistent copy of the store to the backup directory.
// The copy is written to a work file first, so a crash never leaves a corrupt backup.
// The backup it replaces is kept with the .previous suffix.
func (b *bboltDatabase) performBackup(name string, db *bbolt.DB) error {
	target := path.Join(b.config.Backup.Directory, name+bboltDbExtension)
	workFile := target + ".work"
	start := time.Now()
	if err := os.MkdirAll(path.Dir(target), os.ModePerm); err != nil {
		return err
	}
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.CopyFile(workFile, fileMode)
	})
	if err != nil {
		return err
	}
	stat, err := os.Stat(target)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// first backup
	case err != nil:
		return err
	case stat.IsDir():
		return fmt.Errorf("backup target file is a directory: %s", target)
	default:
		if err := os.Rename(target, target+".previous"); err != nil {
			return err
		}
	}
	if err := os.Rename(workFile, target); err != nil {
		return err
	}
	log.Logger().WithField(core.LogFieldStore, name).Debugf("BBolt backup written to %s in %s", target, time.Since(start))
	return nil
}

// close stops the backups, then closes all stores.
func (b *bboltDatabase) close() {
	b.cancel()
	b.backups.Wait()
	b.mux.Lock()
	defer b.mux.Unlock()
	for name, db := range b.stores {
		if err := db.Close(); err != nil {
			log.Logger().WithError(err).WithField(core.LogFieldStore, name).Error("Failed to close BBolt store")
		}
	}
	b.stores = map[string]*bbolt.DB{}
}
