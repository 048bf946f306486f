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

package holder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nuts-foundation/nuts-wallet/audit"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/vcr/credential"
	"github.com/nuts-foundation/nuts-wallet/vcr/log"
	"go.etcd.io/bbolt"
)

const (
	credentialsBucket = "credentials"
	// credentialIndexBucket maps credential IDs to their key in the credentials bucket.
	credentialIndexBucket = "credential_index"
)

var _ Wallet = (*BBoltWallet)(nil)

// NewBBoltWallet creates a wallet storing its credentials in the given BBolt database.
func NewBBoltWallet(db *bbolt.DB) *BBoltWallet {
	return &BBoltWallet{db: db}
}

// BBoltWallet keeps credentials in a BBolt database, in the order they were first stored.
type BBoltWallet struct {
	db *bbolt.DB
}

// Store adds the credential, or replaces the credential with the same ID.
func (w *BBoltWallet) Store(_ context.Context, storable credential.StorableCredential) error {
	if storable.ID == "" {
		return errors.New("credential must have an ID")
	}
	data, err := json.Marshal(storable)
	if err != nil {
		return err
	}
	return w.db.Update(func(tx *bbolt.Tx) error {
		credentials, err := tx.CreateBucketIfNotExists([]byte(credentialsBucket))
		if err != nil {
			return err
		}
		index, err := tx.CreateBucketIfNotExists([]byte(credentialIndexBucket))
		if err != nil {
			return err
		}
		if key := index.Get([]byte(storable.ID)); key != nil {
			return credentials.Put(key, data)
		}
		sequence, err := credentials.NextSequence()
		if err != nil {
			return err
		}
		key := []byte(fmt.Sprintf("%016d", sequence))
		if err = credentials.Put(key, data); err != nil {
			return err
		}
		return index.Put([]byte(storable.ID), key)
	})
}

// RetrieveAll returns all credentials, oldest first.
func (w *BBoltWallet) RetrieveAll(_ context.Context) ([]credential.StorableCredential, error) {
	var result []credential.StorableCredential
	err := w.db.View(func(tx *bbolt.Tx) error {
		credentials := tx.Bucket([]byte(credentialsBucket))
		if credentials == nil {
			return nil
		}
		return credentials.ForEach(func(key, value []byte) error {
			var current credential.StorableCredential
			if err := json.Unmarshal(value, &current); err != nil {
				return fmt.Errorf("unable to unmarshal credential (key=%s): %w", key, err)
			}
			result = append(result, current)
			return nil
		})
	})
	return result, err
}

func (w *BBoltWallet) Retrieve(_ context.Context, id string) (*credential.StorableCredential, error) {
	var result *credential.StorableCredential
	err := w.db.View(func(tx *bbolt.Tx) error {
		data := lookup(tx, id)
		if data == nil {
			return ErrNotFound
		}
		result = &credential.StorableCredential{}
		return json.Unmarshal(data, result)
	})
	return result, err
}

func (w *BBoltWallet) Remove(ctx context.Context, id string) error {
	err := w.db.Update(func(tx *bbolt.Tx) error {
		index := tx.Bucket([]byte(credentialIndexBucket))
		if index == nil {
			return ErrNotFound
		}
		key := index.Get([]byte(id))
		if key == nil {
			return ErrNotFound
		}
		if err := tx.Bucket([]byte(credentialsBucket)).Delete(key); err != nil {
			return err
		}
		return index.Delete([]byte(id))
	})
	if err == nil {
		audit.Log(audit.ContextOrDefault(ctx, "", "VCR", "wallet"), log.Logger().
			WithField(core.LogFieldCredentialID, id), audit.CredentialRemovedEvent).
			Info("Removed credential from wallet")
	}
	return err
}

func (w *BBoltWallet) Count() (int, error) {
	var result int
	err := w.db.View(func(tx *bbolt.Tx) error {
		if index := tx.Bucket([]byte(credentialIndexBucket)); index != nil {
			result = index.Stats().KeyN
		}
		return nil
	})
	return result, err
}

// lookup returns the stored credential with the given ID, or nil.
func lookup(tx *bbolt.Tx, id string) []byte {
	index := tx.Bucket([]byte(credentialIndexBucket))
	if index == nil {
		return nil
	}
	key := index.Get([]byte(id))
	if key == nil {
		return nil
	}
	return tx.Bucket([]byte(credentialsBucket)).Get(key)
}
