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

package openid4vp

import (
	"errors"
	"fmt"

	"github.com/nuts-foundation/nuts-wallet/storage"
)

// currentFlowKey is the key of the single flow state slot.
const currentFlowKey = "current"

// NewStateStore creates a StateStore keeping the presentation flow state in the given session store.
func NewStateStore(store storage.SessionStore) *StateStore {
	return &StateStore{store: store}
}

// StateStore holds the state of one presentation flow: storing a new flow replaces the previous one.
// Callers serialize access; the RelyingParty does so with its own mutex.
type StateStore struct {
	store storage.SessionStore
}

// Store replaces the current flow state.
func (s *StateStore) Store(state FlowState) error {
	if err := s.store.Put(currentFlowKey, state); err != nil {
		return fmt.Errorf("unable to store presentation flow state: %w", err)
	}
	return nil
}

// Retrieve returns the current flow state, or ErrFlowState if there is none.
func (s *StateStore) Retrieve() (*FlowState, error) {
	var result FlowState
	if err := s.store.Get(currentFlowKey, &result); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrFlowState
		}
		return nil, fmt.Errorf("unable to read presentation flow state: %w", err)
	}
	return &result, nil
}

// Delete removes the current flow state, if any.
func (s *StateStore) Delete() error {
	if err := s.store.Delete(currentFlowKey); err != nil {
		return fmt.Errorf("unable to delete presentation flow state: %w", err)
	}
	return nil
}
