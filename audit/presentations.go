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

package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const presentationsBucket = "presentations"

// PresentationRecord is the record of a presentation the wallet sent to a verifier.
type PresentationRecord struct {
	// ID uniquely identifies the record.
	ID string `json:"id"`
	// Presentation is the vp_token as sent to the verifier.
	Presentation string `json:"presentation"`
	// Format is the format of the presentation, or of the first one if the vp_token contains several.
	Format string `json:"format"`
	// CredentialIDs are the wallet identifiers of the disclosed credentials.
	CredentialIDs []string `json:"credentialIdentifiers"`
	// PresentationSubmission is the presentation_submission as sent to the verifier.
	PresentationSubmission json.RawMessage `json:"presentationSubmission"`
	// Audience is the client ID of the verifier.
	Audience string `json:"audience"`
	// IssuanceDate is the moment the presentation was sent.
	IssuanceDate time.Time `json:"issuanceDate"`
}

// NewPresentationStore creates a PresentationStore on the given BBolt database.
func NewPresentationStore(db *bbolt.DB) *PresentationStore {
	return &PresentationStore{db: db}
}

// PresentationStore keeps the records of sent presentations in a BBolt database, ordered by insertion.
type PresentationStore struct {
	db *bbolt.DB
}

// StorePresentation adds the given record.
func (s *PresentationStore) StorePresentation(_ context.Context, record PresentationRecord) error {
	if record.ID == "" {
		return errors.New("presentation record must have an ID")
	}
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(presentationsBucket))
		if err != nil {
			return err
		}
		sequence, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		return bucket.Put([]byte(fmt.Sprintf("%016d/%s", sequence, record.ID)), data)
	})
}

// ListPresentations returns all records, oldest first.
func (s *PresentationStore) ListPresentations(_ context.Context) ([]PresentationRecord, error) {
	var result []PresentationRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(presentationsBucket))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, value []byte) error {
			var record PresentationRecord
			if err := json.Unmarshal(value, &record); err != nil {
				return fmt.Errorf("invalid presentation record: %w", err)
			}
			result = append(result, record)
			return nil
		})
	})
	return result, err
}
