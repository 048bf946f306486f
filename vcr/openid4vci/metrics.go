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

package openid4vci

import (
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
)

var credentialRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: core.MetricsNamespace,
	Subsystem: "openid4vci",
	Name:      "credential_requests_total",
	Help:      "Number of credential requests sent to issuers, by credential format and result.",
}, []string{"format", "result"})

var tokenNonceRetriesCounter = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: core.MetricsNamespace,
	Subsystem: "openid4vci",
	Name:      "dpop_nonce_retries_total",
	Help:      "Number of token requests that were retried with a DPoP nonce provided by the authorization server.",
})

// Collectors returns the prometheus collectors of the issuance client.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{credentialRequestsCounter, tokenNonceRetriesCounter}
}
