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

package core

import (
	"errors"

	"github.com/spf13/pflag"
)

const testEngineName = "testengine"

// TestEngineConfig defines the configuration for the test engine
type TestEngineConfig struct {
	Key  string              `koanf:"key"`
	Sub  TestEngineSubConfig `koanf:"sub"`
	List []string            `koanf:"list"`
}

// TestEngineSubConfig defines the `sub` configuration for the test engine
type TestEngineSubConfig struct {
	Test string `koanf:"test"`
}

// TestServerConfig returns a new ServerConfig with the given template applied.
func TestServerConfig(template ServerConfig) ServerConfig {
	config := NewServerConfig()
	config.Datadir = template.Datadir
	config.Strictmode = template.Strictmode
	config.HTTPClient = template.HTTPClient
	return *config
}

// TestEngine is an engine that records its lifecycle, used for testing the System.
type TestEngine struct {
	TestConfig    TestEngineConfig
	Started       bool
	Configured    bool
	ShutdownError bool
}

func testDefaultConfig() TestEngineConfig {
	return TestEngineConfig{List: []string{"default", "default"}}
}

// Configure marks the engine as configured.
func (i *TestEngine) Configure(_ ServerConfig) error {
	i.Configured = true
	return nil
}

// Start marks the engine as started.
func (i *TestEngine) Start() error {
	i.Started = true
	return nil
}

// Shutdown fails when ShutdownError is set.
func (i *TestEngine) Shutdown() error {
	if i.ShutdownError {
		return errors.New("failure")
	}
	i.Started = false
	return nil
}

func (i *TestEngine) Config() interface{} {
	return &i.TestConfig
}

func (i *TestEngine) ConfigKey() string {
	return testEngineName
}

func (i *TestEngine) Name() string {
	return testEngineName
}

func testFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet(testEngineName, pflag.ContinueOnError)

	defs := testDefaultConfig()
	flags.StringSlice(testEngineName+".list", defs.List, "sets the values of list")
	flags.String(testEngineName+".key", defs.Key, "another flag")
	flags.String(testEngineName+".sub.test", defs.Sub.Test, "nested flag")

	return flags
}
