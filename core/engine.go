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
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/labstack/echo/v4"
	"github.com/spf13/pflag"
)

// Engine is a component of the wallet backend. It may implement any of the lifecycle interfaces below.
type Engine interface{}

// Named is implemented by engines that have a name, used in logging and errors.
type Named interface {
	Name() string
}

// Injectable is implemented by engines that read their configuration from the server config.
type Injectable interface {
	Named
	// ConfigKey returns the key under which the engine's config is found in the config file, e.g. "vcr".
	ConfigKey() string
	// Config returns a pointer to the engine's config struct.
	Config() interface{}
}

// Configurable is implemented by engines that validate and apply their config before the system starts.
// Configure is called once, in order of registration.
type Configurable interface {
	Configure(config ServerConfig) error
}

// Runnable is implemented by engines that run background routines.
// Start is called in order of registration, Shutdown in reverse order.
type Runnable interface {
	Start() error
	Shutdown() error
}

// Routable is implemented by engines that expose HTTP endpoints.
type Routable interface {
	Routes(router EchoRouter)
}

// EchoRouter is the subset of echo.Echo engines use to register their endpoints.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	Use(middleware ...echo.MiddlewareFunc)
}

// System holds the registered engines and the server config they share.
type System struct {
	Config  *ServerConfig
	engines []Engine
}

// NewSystem creates a System without engines.
func NewSystem() *System {
	return &System{Config: NewServerConfig()}
}

// RegisterEngine adds an engine. Engines must be registered after the engines they depend on.
func (system *System) RegisterEngine(engine Engine) {
	system.engines = append(system.engines, engine)
}

// Load reads the server config from the given flags, the config file and the environment,
// then injects each engine's section into it.
func (system *System) Load(flags *pflag.FlagSet) error {
	if err := system.Config.Load(flags); err != nil {
		return err
	}
	return system.VisitEnginesE(func(engine Engine) error {
		if injectable, ok := engine.(Injectable); ok {
			return system.Config.InjectIntoEngine(injectable)
		}
		return nil
	})
}

// Configure creates the data directory and configures the engines.
func (system *System) Configure() error {
	if err := os.MkdirAll(system.Config.Datadir, os.ModePerm); err != nil {
		return fmt.Errorf("unable to create datadir (dir=%s): %w", system.Config.Datadir, err)
	}
	return system.VisitEnginesE(func(engine Engine) error {
		if configurable, ok := engine.(Configurable); ok {
			if err := configurable.Configure(*system.Config); err != nil {
				return fmt.Errorf("unable to configure %s: %w", engineName(engine), err)
			}
		}
		return nil
	})
}

// Routes registers the endpoints of all Routable engines on the given router.
func (system *System) Routes(router EchoRouter) {
	system.VisitEngines(func(engine Engine) {
		if routable, ok := engine.(Routable); ok {
			routable.Routes(router)
		}
	})
}

// Start starts the engines, stopping at the first one that fails.
func (system *System) Start() error {
	return system.VisitEnginesE(func(engine Engine) error {
		if runnable, ok := engine.(Runnable); ok {
			if err := runnable.Start(); err != nil {
				return fmt.Errorf("unable to start %s: %w", engineName(engine), err)
			}
		}
		return nil
	})
}

// Shutdown shuts down the engines in reverse order of registration.
// A failing engine doesn't prevent the others from shutting down: all errors are returned.
func (system *System) Shutdown() error {
	var result *multierror.Error
	for i := len(system.engines) - 1; i >= 0; i-- {
		if runnable, ok := system.engines[i].(Runnable); ok {
			if err := runnable.Shutdown(); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", engineName(system.engines[i]), err))
			}
		}
	}
	return result.ErrorOrNil()
}

// VisitEngines calls the visitor for every engine, in order of registration.
func (system *System) VisitEngines(visitor func(engine Engine)) {
	for _, engine := range system.engines {
		visitor(engine)
	}
}

// VisitEnginesE calls the visitor for every engine, in order of registration, until it returns an error.
func (system *System) VisitEnginesE(visitor func(engine Engine) error) error {
	for _, engine := range system.engines {
		if err := visitor(engine); err != nil {
			return err
		}
	}
	return nil
}

func engineName(engine Engine) string {
	if named, ok := engine.(Named); ok {
		return named.Name()
	}
	return fmt.Sprintf("%T", engine)
}
