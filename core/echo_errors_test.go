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
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"schneider.vip/problem"
)

func TestHttpErrorHandler(t *testing.T) {
	es := echo.New()
	es.HTTPErrorHandler = CreateHTTPErrorHandler()
	server := httptest.NewServer(es)
	t.Cleanup(server.Close)
	client := http.Client{}

	t.Run("is echo HTTPError", func(t *testing.T) {
		es.GET("/echo", func(c echo.Context) error {
			err := errors.New("failed")
			return &echo.HTTPError{
				Code:     http.StatusForbidden,
				Message:  err.Error(),
				Internal: err,
			}
		})
		resp, err := client.Get(server.URL + "/echo")

		require.NoError(t, err)
		assert.Equal(t, 403, resp.StatusCode)
		assert.Equal(t, problem.ContentTypeJSON, resp.Header.Get("Content-Type"))
		bodyBytes, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "{\"detail\":\"failed\",\"status\":403,\"title\":\"Operation failed\"}", string(bodyBytes))
	})
	t.Run("status code error", func(t *testing.T) {
		es.GET("/invalid", func(c echo.Context) error {
			c.Set(OperationIDContextKey, "proxy")
			return InvalidInputError("invalid url: %w", errors.New("missing scheme"))
		})
		resp, err := client.Get(server.URL + "/invalid")

		require.NoError(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		bodyBytes, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "{\"detail\":\"invalid url: missing scheme\",\"status\":400,\"title\":\"proxy failed\"}", string(bodyBytes))
	})
	t.Run("unmapped", func(t *testing.T) {
		es.GET("/other", func(c echo.Context) error {
			c.Set(OperationIDContextKey, "test")
			return errors.New("other error")
		})
		resp, err := client.Get(server.URL + "/other")

		require.NoError(t, err)
		assert.Equal(t, 500, resp.StatusCode)
		bodyBytes, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "{\"detail\":\"other error\",\"status\":500,\"title\":\"test failed\"}", string(bodyBytes))
	})
}

func Test_InvalidInputError(t *testing.T) {
	cause := errors.New("oops")
	err := InvalidInputError("failed: %w", cause).(httpStatusCodeError)
	assert.EqualError(t, err, "failed: oops")
	assert.Equal(t, http.StatusBadRequest, err.statusCode)
	assert.ErrorIs(t, err, InvalidInputError(""))
	assert.ErrorIs(t, err, cause)
}
