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

package openid4vci

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/storage"
	"github.com/nuts-foundation/nuts-wallet/vcr/log"
)

const (
	indexKey        = "index"
	flowStatePrefix = "flow/"
)

// NewStateStore creates a StateStore persisting issuance flows in the given session store.
func NewStateStore(store storage.SessionStore) *StateStore {
	return &StateStore{
		store: store,
		clock: time.Now,
	}
}

// StateStore keeps the issuance flow states, together with an index of the states it holds.
// The index allows iterating all states, which the underlying session store can't do.
type StateStore struct {
	mux   sync.Mutex
	store storage.SessionStore
	clock func() time.Time
}

// Store writes the flow state with the given ID, adding it to the index if it's new.
func (s *StateStore) Store(id string, state FlowState) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if err := s.store.Put(flowStatePrefix+id, state); err != nil {
		return fmt.Errorf("unable to store issuance flow state: %w", err)
	}
	index, err := s.readIndex()
	if err != nil {
		return err
	}
	if !slices.Contains(index, id) {
		return s.store.Put(indexKey, append(index, id))
	}
	return nil
}

// Retrieve returns the flow state with the given ID, or ErrFlowState if it does not exist.
func (s *StateStore) Retrieve(id string) (*FlowState, error) {
	var result FlowState
	if err := s.store.Get(flowStatePrefix+id, &result); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFlowState
		}
		return nil, fmt.Errorf("unable to read issuance flow state: %w", err)
	}
	return &result, nil
}

// Delete removes the flow state with the given ID.
func (s *StateStore) Delete(id string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.delete(id)
}

// GetAllStates removes expired states and returns the remaining ones, in order of creation.
func (s *StateStore) GetAllStates() ([]FlowState, error) {
	if err := s.CleanupExpired(); err != nil {
		return nil, err
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	index, err := s.readIndex()
	if err != nil {
		return nil, err
	}
	result := make([]FlowState, 0, len(index))
	for _, id := range index {
		state, err := s.Retrieve(id)
		if err != nil {
			// evicted by the session store's TTL, the index is pruned on the next cleanup
			continue
		}
		result = append(result, *state)
	}
	return result, nil
}

// CleanupExpired removes states of which the access token or the c_nonce expired.
// It also drops index entries of states that no longer exist in the session store.
func (s *StateStore) CleanupExpired() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	index, err := s.readIndex()
	if err != nil {
		return err
	}
	now := s.clock()
	remaining := make([]string, 0, len(index))
	for _, id := range index {
		state, err := s.Retrieve(id)
		if errors.Is(err, ErrFlowState) {
			continue
		}
		if err != nil {
			return err
		}
		if state.Expired(now) {
			log.Logger().
				WithField(core.LogFieldFlowID, id).
				Debug("Removing expired issuance flow state")
			if err = s.store.Delete(flowStatePrefix + id); err != nil {
				return err
			}
			continue
		}
		remaining = append(remaining, id)
	}
	if len(remaining) == len(index) {
		return nil
	}
	return s.store.Put(indexKey, remaining)
}

func (s *StateStore) delete(id string) error {
	if err := s.store.Delete(flowStatePrefix + id); err != nil {
		return err
	}
	index, err := s.readIndex()
	if err != nil {
		return err
	}
	i := slices.Index(index, id)
	if i < 0 {
		return nil
	}
	return s.store.Put(indexKey, slices.Delete(index, i, i+1))
}

func (s *StateStore) readIndex() ([]string, error) {
	var index []string
	if err := s.store.Get(indexKey, &index); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("unable to read issuance flow state index: %w", err)
	}
	return index, nil
}
