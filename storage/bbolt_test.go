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
	"path"
	"testing"
	"time"

	"github.com/nuts-foundation/nuts-wallet/test/io"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
)

const moduleName = "test"
const storeName = "store"

var fullStoreName = path.Join(moduleName, storeName)

var key = []byte{1, 2, 3}
var value = []byte{4, 5, 6}

func writeValue(t *testing.T, db *bbolt.DB, value []byte) {
	err := db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte("data"))
		if err != nil {
			return err
		}
		return bucket.Put(key, value)
	})
	require.NoError(t, err)
}

func readValue(t *testing.T, filePath string) []byte {
	db := CreateTestBBoltStore(t, filePath)
	var actualValue []byte
	err := db.View(func(tx *bbolt.Tx) error {
		actualValue = append([]byte{}, tx.Bucket([]byte("data")).Get(key)...)
		return nil
	})
	require.NoError(t, err)
	return actualValue
}

func TestCreateTestBBoltStore(t *testing.T) {
	filePath := path.Join(io.TestDirectory(t), "test.db")
	db := CreateTestBBoltStore(t, filePath)

	writeValue(t, db, value)

	assert.Equal(t, filePath, db.Path())
	assert.True(t, db.NoSync)
}

func Test_bboltDatabase_performBackup(t *testing.T) {
	datadir := io.TestDirectory(t)
	backupDir := path.Join(datadir, "backups")
	db := createBBoltDatabase(datadir, BBoltConfig{BBoltBackupConfig{
		Directory: backupDir,
		// Not specifying interval: disables scheduled backup
	}})
	defer db.close()
	store, err := db.getStore(moduleName, storeName)
	require.NoError(t, err)
	backupFile := path.Join(backupDir, fullStoreName+bboltDbExtension)

	t.Run("write some data, then backup, then assert the entry can be read", func(t *testing.T) {
		writeValue(t, store, value)

		err := db.performBackup(fullStoreName, store)

		require.NoError(t, err)
		require.FileExists(t, backupFile)
		assert.Equal(t, value, readValue(t, backupFile))
	})

	t.Run("subsequent backups", func(t *testing.T) {
		var newValue = []byte{10, 11, 12}

		// Write data, then backup, then overwrite the value and backup again. Check that the backup contains the most recent data.
		writeValue(t, store, value)
		require.NoError(t, db.performBackup(fullStoreName, store))
		writeValue(t, store, newValue)
		require.NoError(t, db.performBackup(fullStoreName, store))

		assert.Equal(t, newValue, readValue(t, backupFile))
		assert.FileExists(t, backupFile+".previous")
	})
}

func Test_bboltDatabase_startBackup(t *testing.T) {
	logrus.SetLevel(logrus.DebugLevel)
	defer logrus.SetLevel(logrus.InfoLevel)
	datadir := io.TestDirectory(t)
	backupDir := path.Join(datadir, "backups")
	db := createBBoltDatabase(datadir, BBoltConfig{BBoltBackupConfig{
		Directory: backupDir,
		Interval:  100 * time.Millisecond,
	}})

	t.Run("scheduled backup is performed", func(t *testing.T) {
		store, err := db.getStore(moduleName, storeName)
		require.NoError(t, err)
		writeValue(t, store, value)

		// Wait for backup to be performed, then close database (which allows running backup procedures to finish)
		time.Sleep(time.Second)
		db.close()

		assert.FileExists(t, path.Join(backupDir, fullStoreName+bboltDbExtension))
	})
}
