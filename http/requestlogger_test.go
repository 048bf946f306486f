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

package http

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func Test_requestLoggerMiddleware(t *testing.T) {
	noSkip := func(_ echo.Context) bool {
		return false
	}
	newContext := func() echo.Context {
		request := httptest.NewRequest(http.MethodPost, "/proxy", nil)
		request.RemoteAddr = "[::1]:1234"
		return echo.New().NewContext(request, httptest.NewRecorder())
	}
	t.Run("it logs", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		logFunc := requestLoggerMiddleware(noSkip, logger.WithFields(logrus.Fields{}))

		err := logFunc(func(context echo.Context) error {
			return context.NoContent(http.StatusNoContent)
		})(newContext())

		assert.NoError(t, err)
		assert.Len(t, hook.Entries, 1)
		assert.Equal(t, "::1", hook.LastEntry().Data["remote_ip"])
		assert.Equal(t, http.StatusNoContent, hook.LastEntry().Data["status"])
		assert.Equal(t, "/proxy", hook.LastEntry().Data["uri"])
		assert.Equal(t, http.MethodPost, hook.LastEntry().Data["method"])
	})
	t.Run("it handles echo.HTTPErrors", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		logFunc := requestLoggerMiddleware(noSkip, logger.WithFields(logrus.Fields{}))

		_ = logFunc(func(context echo.Context) error {
			return echo.NewHTTPError(http.StatusForbidden)
		})(newContext())

		assert.Len(t, hook.Entries, 1)
		assert.Equal(t, http.StatusForbidden, hook.LastEntry().Data["status"])
	})
	t.Run("it handles httpStatusCodeError", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		logFunc := requestLoggerMiddleware(noSkip, logger.WithFields(logrus.Fields{}))

		_ = logFunc(func(context echo.Context) error {
			return core.InvalidInputError("invalid")
		})(newContext())

		assert.Len(t, hook.Entries, 1)
		assert.Equal(t, http.StatusBadRequest, hook.LastEntry().Data["status"])
	})
	t.Run("it handles go errors", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		logFunc := requestLoggerMiddleware(noSkip, logger.WithFields(logrus.Fields{}))

		_ = logFunc(func(context echo.Context) error {
			return errors.New("failed")
		})(newContext())

		assert.Len(t, hook.Entries, 1)
		assert.Equal(t, http.StatusInternalServerError, hook.LastEntry().Data["status"])
	})
	t.Run("skipped", func(t *testing.T) {
		logger, hook := test.NewNullLogger()
		logFunc := requestLoggerMiddleware(func(_ echo.Context) bool {
			return true
		}, logger.WithFields(logrus.Fields{}))

		_ = logFunc(func(context echo.Context) error {
			return context.NoContent(http.StatusOK)
		})(newContext())

		assert.Empty(t, hook.Entries)
	})
}

func Test_bodyLoggerMiddleware(t *testing.T) {
	t.Run("it logs", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/proxy", bytes.NewReader([]byte(`"request"`)))
		request.Header.Set("Content-Type", "application/json")
		ctx := echo.New().NewContext(request, httptest.NewRecorder())

		logger, hook := test.NewNullLogger()
		logFunc := bodyLoggerMiddleware(func(c echo.Context) bool {
			return false
		}, logger.WithFields(logrus.Fields{}))
		err := logFunc(func(context echo.Context) error {
			return context.JSONBlob(http.StatusOK, []byte(`"response"`))
		})(ctx)

		assert.NoError(t, err)
		assert.Len(t, hook.Entries, 2)
		assert.Equal(t, `HTTP request body: "request"`, hook.AllEntries()[0].Message)
		assert.Equal(t, `HTTP response body: "response"`, hook.AllEntries()[1].Message)
	})
	t.Run("request and response not loggable", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/proxy", bytes.NewReader([]byte{1, 2, 3}))
		request.Header.Set("Content-Type", "application/binary")
		ctx := echo.New().NewContext(request, httptest.NewRecorder())

		logger, hook := test.NewNullLogger()
		logFunc := bodyLoggerMiddleware(func(c echo.Context) bool {
			return false
		}, logger.WithFields(logrus.Fields{}))
		err := logFunc(func(context echo.Context) error {
			return context.Blob(http.StatusOK, "application/binary", []byte{1, 2, 3})
		})(ctx)

		assert.NoError(t, err)
		assert.Len(t, hook.Entries, 2)
		assert.Equal(t, `HTTP request body: (not loggable: application/binary)`, hook.AllEntries()[0].Message)
		assert.Equal(t, `HTTP response body: (not loggable: application/binary)`, hook.AllEntries()[1].Message)
	})
}

func Test_loggableBody(t *testing.T) {
	t.Run("JSON object with token", func(t *testing.T) {
		actual := loggableBody("application/json", []byte(`{"access_token":"secret","token_type":"DPoP"}`))

		assert.Equal(t, `{"access_token":"<redacted>","token_type":"DPoP"}`, actual)
	})
	t.Run("redacted JSON keeps other values unescaped", func(t *testing.T) {
		actual := loggableBody("application/json", []byte(`{"credential":"a~b","redirect_uri":"https://example.com?a=1&b=<2>"}`))

		assert.Equal(t, `{"credential":"<redacted>","redirect_uri":"https://example.com?a=1&b=<2>"}`, actual)
	})
	t.Run("JSON object without sensitive fields is logged as-is", func(t *testing.T) {
		actual := loggableBody("application/json; charset=utf-8", []byte(`{"b": 1, "a": 2}`))

		assert.Equal(t, `{"b": 1, "a": 2}`, actual)
	})
	t.Run("form with vp_token", func(t *testing.T) {
		actual := loggableBody("application/x-www-form-urlencoded", []byte("state=abc&vp_token=ey.payload.sig"))

		assert.Equal(t, "state=abc&vp_token=%3Credacted%3E", actual)
	})
	t.Run("malformed form", func(t *testing.T) {
		actual := loggableBody("application/x-www-form-urlencoded", []byte("%zz"))

		assert.Equal(t, "(not loggable: malformed form)", actual)
	})
	t.Run("CBOR", func(t *testing.T) {
		actual := loggableBody("application/cbor", []byte{0xa0})

		assert.Equal(t, "(not loggable: application/cbor)", actual)
	})
}
