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

// Package io contains filesystem helpers for tests.
package io

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDirectory returns a new, empty directory that is removed when the test completes.
func TestDirectory(t testing.TB) string {
	t.Helper()
	return t.TempDir()
}

// TestFile writes the given contents to a file with the given name in a new test directory and returns its path.
func TestFile(t testing.TB, name string, contents []byte) string {
	t.Helper()
	file := filepath.Join(TestDirectory(t), name)
	if err := os.WriteFile(file, contents, 0600); err != nil {
		t.Fatalf("unable to write test file %s: %v", file, err)
	}
	return file
}
