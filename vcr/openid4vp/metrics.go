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

package openid4vp

import (
	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess      = "success"
	resultFailure      = "failure"
	resultInsufficient = "insufficient_credentials"
	resultRejected     = "rejected"
)

var authorizationRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: core.MetricsNamespace,
	Subsystem: "openid4vp",
	Name:      "authorization_requests_total",
	Help:      "Number of presentation requests received from verifiers, by result.",
}, []string{"result"})

var presentationsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: core.MetricsNamespace,
	Subsystem: "openid4vp",
	Name:      "presentations_sent_total",
	Help:      "Number of authorization responses sent to verifiers, by result.",
}, []string{"result"})

// Collectors returns the prometheus collectors of the relying party.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{authorizationRequestsCounter, presentationsCounter}
}
