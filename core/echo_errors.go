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
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"schneider.vip/problem"
)

// OperationIDContextKey is the key of the Echo context value naming the operation being called, used in error responses.
const OperationIDContextKey = "!!OperationId"

// UserContextKey is the key of the Echo context value holding the authenticated caller.
const UserContextKey = "user"

// CreateHTTPErrorHandler returns an Echo HTTPErrorHandler that logs the error and responds with application/problem+json.
func CreateHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			// e.g. a failed bind or unknown route
			err = httpStatusCodeError{msg: fmt.Sprintf("%v", echoErr.Message), statusCode: echoErr.Code, err: echoErr}
		}
		title := "Operation failed"
		operationID := ctx.Get(OperationIDContextKey)
		if operationID != nil {
			title = fmt.Sprintf("%s failed", operationID)
		}
		status := GetHTTPStatusCode(err)
		entry := logrus.WithFields(logrus.Fields{
			"operationID": operationID,
			"requestURI":  ctx.Request().RequestURI,
		}).WithError(err)
		if status >= http.StatusInternalServerError {
			entry.Error(title)
		} else {
			entry.Warn(title)
		}
		if ctx.Response().Committed {
			entry.Warn("Unable to send error back to client, response already committed")
			return
		}
		if _, writeErr := problem.New(problem.Title(title), problem.Status(status), problem.Detail(err.Error())).WriteTo(ctx.Response()); writeErr != nil {
			entry.WithField("writeError", writeErr).Error("Unable to write error response")
		}
	}
}

// HTTPStatusCodeError is an error that specifies the HTTP status to respond with.
type HTTPStatusCodeError interface {
	error
	StatusCode() int
}

// Error returns an error that maps to the given HTTP status. The first error in args becomes the wrapped cause.
func Error(statusCode int, format string, args ...interface{}) error {
	var cause error
	for _, arg := range args {
		if err, ok := arg.(error); ok {
			cause = err
			break
		}
	}
	return httpStatusCodeError{msg: fmt.Errorf(format, args...).Error(), statusCode: statusCode, err: cause}
}

// InvalidInputError returns an error that maps to HTTP 400 Bad Request.
func InvalidInputError(format string, args ...interface{}) error {
	return Error(http.StatusBadRequest, format, args...)
}

// GetHTTPStatusCode returns the HTTP status the error maps to, or 500 Internal Server Error if it doesn't specify one.
func GetHTTPStatusCode(err error) int {
	var statusErr HTTPStatusCodeError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode()
	}
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr.Code
	}
	return http.StatusInternalServerError
}

type httpStatusCodeError struct {
	msg        string
	statusCode int
	err        error
}

func (e httpStatusCodeError) Error() string {
	return e.msg
}

func (e httpStatusCodeError) StatusCode() int {
	return e.statusCode
}

// Is reports whether other is an httpStatusCodeError with the same status, so errors.Is(err, InvalidInputError("")) works.
func (e httpStatusCodeError) Is(other error) bool {
	cast, ok := other.(httpStatusCodeError)
	return ok && cast.statusCode == e.statusCode
}

func (e httpStatusCodeError) Unwrap() error {
	return e.err
}
