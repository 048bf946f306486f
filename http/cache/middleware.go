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

package cache

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Middleware sets the Cache-Control header for responses of the given request paths.
// Use NoStore to create a new instance.
type Middleware struct {
	Skipper      middleware.Skipper
	cacheControl string
}

func (m Middleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !m.Skipper(c) {
			c.Response().Header().Set("Cache-Control", m.cacheControl)
			// Pragma is deprecated (HTTP/1.0) but it's specified by OAuth2 RFC6749,
			// so specify it for compliance.
			c.Response().Header().Set("Pragma", "no-cache")
		}
		return next(c)
	}
}

// NoStore creates a new middleware that forbids caching responses of the given request paths,
// e.g. proxied token and credential responses.
func NoStore(requestPaths ...string) Middleware {
	return Middleware{
		Skipper:      matchRequestPathSkipper(requestPaths),
		cacheControl: "no-store",
	}
}

func matchRequestPathSkipper(requestPaths []string) func(c echo.Context) bool {
	return func(c echo.Context) bool {
		for _, curr := range requestPaths {
			if c.Path() == curr {
				return false
			}
		}
		return true
	}
}
