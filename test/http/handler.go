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
	"io"
	"net/http"
	"sync"
)

// Handler is a stub endpoint (e.g. of a credential issuer or verifier) that records the last request it received.
// Responses are JSON encoded, unless ResponseData is a string which is written as-is.
// A zero StatusCode yields 200 OK.
//
//	handler := &Handler{StatusCode: http.StatusOK, ResponseData: metadata}
//	server := httptest.NewServer(handler)
type Handler struct {
	StatusCode   int
	ResponseData interface{}

	// Request, RequestHeaders and RequestData describe the last request served.
	Request        *http.Request
	RequestHeaders http.Header
	RequestData    []byte

	mux sync.Mutex
}

func (h *Handler) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	h.mux.Lock()
	defer h.mux.Unlock()
	h.Request = req
	h.RequestHeaders = req.Header.Clone()
	h.RequestData, _ = io.ReadAll(req.Body)

	body, isText := h.ResponseData.(string)
	if !isText {
		data, _ := json.Marshal(h.ResponseData)
		body = string(data)
		writer.Header().Set("Content-Type", "application/json")
	}
	status := h.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	writer.WriteHeader(status)
	_, _ = io.WriteString(writer, body)
}
