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
	"encoding/json"
	"mime"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/sirupsen/logrus"
)

const redacted = "<redacted>"

// sensitiveFields are top-level body fields that carry credentials or tokens, which must never end up in the logs.
var sensitiveFields = map[string]bool{
	"vp_token":     true,
	"credential":   true,
	"credentials":  true,
	"access_token": true,
	"code":         true,
	"id_token":     true,
}

// requestLoggerMiddleware returns middleware that logs metadata of HTTP requests.
// It must be the outermost middleware, so the status reflects errors returned by the handler.
func requestLoggerMiddleware(skipper middleware.Skipper, logger *logrus.Entry) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:     skipper,
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(_ echo.Context, values middleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip": values.RemoteIP,
				"method":    values.Method,
				"uri":       values.URI,
				"status":    values.Status,
			}
			if values.Error != nil {
				fields["status"] = core.GetHTTPStatusCode(values.Error)
			}
			logger.WithFields(fields).Info("HTTP request")
			return nil
		},
	})
}

// bodyLoggerMiddleware returns middleware that logs the bodies of HTTP requests and responses.
// Only JSON and form bodies are logged, with credentials and tokens redacted.
func bodyLoggerMiddleware(skipper middleware.Skipper, logger *logrus.Entry) echo.MiddlewareFunc {
	return middleware.BodyDumpWithConfig(middleware.BodyDumpConfig{
		Skipper: skipper,
		Handler: func(c echo.Context, request []byte, response []byte) {
			logger.Infof("HTTP request body: %s", loggableBody(c.Request().Header.Get("Content-Type"), request))
			logger.Infof("HTTP response body: %s", loggableBody(c.Response().Header().Get("Content-Type"), response))
		},
	})
}

func loggableBody(contentType string, body []byte) string {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/json", "application/problem+json":
		return redactJSON(body)
	case "application/x-www-form-urlencoded":
		return redactForm(body)
	}
	return "(not loggable: " + contentType + ")"
}

func redactJSON(body []byte) string {
	var object map[string]json.RawMessage
	if json.Unmarshal(body, &object) != nil {
		// not an object, so there are no fields to redact
		return string(body)
	}
	changed := false
	for key := range object {
		if sensitiveFields[key] {
			object[key] = json.RawMessage(`"` + redacted + `"`)
			changed = true
		}
	}
	if !changed {
		return string(body)
	}
	// the marker and logged values are kept readable, json.Marshal would escape < and >
	var result strings.Builder
	encoder := json.NewEncoder(&result)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(object)
	return strings.TrimSuffix(result.String(), "\n")
}

func redactForm(body []byte) string {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return "(not loggable: malformed form)"
	}
	changed := false
	for key := range values {
		if sensitiveFields[key] {
			values.Set(key, redacted)
			changed = true
		}
	}
	if !changed {
		return string(body)
	}
	return values.Encode()
}
