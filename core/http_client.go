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
	"net/http"
)

// HttpError describes an error returned when invoking a remote server.
type HttpError struct {
	error
	StatusCode   int
	ResponseBody []byte
}

// TestStatusCode checks whether the status code of a response that has already been read matches the expected code.
// If it doesn't match it returns an HttpError, containing the received and expected status code, and the response body.
func TestStatusCode(expectedStatusCode int, statusCode int, body []byte) error {
	if statusCode != expectedStatusCode {
		return HttpError{
			error:        fmt.Errorf("server returned HTTP %d (expected: %d)", statusCode, expectedStatusCode),
			StatusCode:   statusCode,
			ResponseBody: body,
		}
	}
	return nil
}

// UserAgent returns the HTTP User-Agent sent with outbound requests.
func UserAgent() string {
	return "nuts-wallet/" + Version()
}

// HTTPRequestDoer defines the Do method of the http.Client interface.
type HTTPRequestDoer interface {
	Do(*http.Request) (*http.Response, error)
}
