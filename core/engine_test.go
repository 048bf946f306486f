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
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSystem(t *testing.T) {
	system := NewSystem()
	assert.NotNil(t, system)
	assert.Empty(t, system.engines)
}

func TestSystem_Lifecycle(t *testing.T) {
	t.Run("configure, start and shutdown", func(t *testing.T) {
		engine := &TestEngine{}
		system := NewSystem()
		system.Config.Datadir = t.TempDir()
		system.RegisterEngine(engine)
		system.RegisterEngine(struct{}{})

		require.NoError(t, system.Configure())
		require.NoError(t, system.Start())
		assert.True(t, engine.Configured)
		assert.True(t, engine.Started)

		require.NoError(t, system.Shutdown())
		assert.False(t, engine.Started)
	})
	t.Run("shutdown continues after failing engine", func(t *testing.T) {
		first := &TestEngine{Started: true}
		system := NewSystem()
		system.RegisterEngine(first)
		system.RegisterEngine(&TestEngine{ShutdownError: true})

		err := system.Shutdown()

		assert.ErrorContains(t, err, "testengine: failure")
		assert.False(t, first.Started)
	})
	t.Run("unable to create datadir", func(t *testing.T) {
		system := NewSystem()
		system.Config = &ServerConfig{Datadir: "engine_test.go"}

		assert.Error(t, system.Configure())
	})
}

func TestSystem_VisitEnginesE(t *testing.T) {
	ctl := System{
		engines: []Engine{},
	}
	ctl.RegisterEngine(&TestEngine{})
	ctl.RegisterEngine(&TestEngine{})
	expectedErr := errors.New("function should stop because an error occurred")
	timesCalled := 0
	actualErr := ctl.VisitEnginesE(func(engine Engine) error {
		timesCalled++
		return expectedErr
	})
	assert.Equal(t, 1, timesCalled)
	assert.Equal(t, expectedErr, actualErr)
}

func TestSystem_Load(t *testing.T) {
	engine := &TestEngine{}
	system := NewSystem()
	system.RegisterEngine(engine)

	err := system.Load(testFlags(t, "--testengine.key", "value"))

	require.NoError(t, err)
	assert.Equal(t, "value", engine.TestConfig.Key)
}

func TestSystem_Routes(t *testing.T) {
	system := NewSystem()
	system.RegisterEngine(NewMetricsEngine())
	system.RegisterEngine(&TestEngine{})
	router := echo.New()

	system.Routes(router)

	assert.Len(t, router.Routes(), 1)
}

func Test_engineName(t *testing.T) {
	assert.Equal(t, "testengine", engineName(&TestEngine{}))
	assert.Equal(t, "struct {}", engineName(struct{}{}))
}
