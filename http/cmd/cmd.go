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

package cmd

import (
	"fmt"

	"github.com/nuts-foundation/nuts-wallet/crypto"
	"github.com/nuts-foundation/nuts-wallet/http"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// FlagSet defines the set of flags that sets the engine configuration
func FlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("http", pflag.ContinueOnError)

	defs := http.DefaultConfig()
	flags.String("http.address", defs.Address, "Address and port the server will be listening to.")
	flags.String("http.log", string(defs.Log), fmt.Sprintf("What to log about HTTP requests. Options are '%s', '%s' (log request method, URI, IP and response code), and '%s' (log the request and response body, in addition to the metadata).", http.LogNothingLevel, http.LogMetadataLevel, http.LogMetadataAndBodyLevel))
	flags.StringSlice("http.cors.origin", defs.CORS.Origin, "When set, enables CORS for the HTTP interface for the specified origins.")
	flags.Bool("http.proxy.enabled", defs.Proxy.Enabled, "Whether to serve the /proxy endpoint, which relays calls of browser based wallets to issuers and verifiers.")
	flags.String("http.proxy.token", defs.Proxy.Token, "Bearer token callers of the /proxy endpoint must present. Required when the proxy is enabled.")
	flags.Duration("http.proxy.ratelimit.interval", defs.Proxy.RateLimit.Interval, "Interval in which http.proxy.ratelimit.limit proxied calls are allowed.")
	flags.Int("http.proxy.ratelimit.limit", defs.Proxy.RateLimit.Limit, "Number of proxied calls allowed per interval.")
	flags.Int("http.proxy.ratelimit.burst", defs.Proxy.RateLimit.Burst, "Number of proxied calls allowed in a burst.")
	flags.String("http.client.proxyurl", defs.Client.ProxyURL, "Base URL of a wallet backend. When set, calls to issuers and verifiers are relayed through its /proxy endpoint.")
	flags.String("http.client.proxytoken", defs.Client.ProxyToken, "Bearer token presented to the /proxy endpoint of the wallet backend.")
	flags.Int("http.client.cachesize", defs.Client.CacheSize, "Maximum size in bytes of cached issuer and verifier metadata. 0 disables caching.")

	return flags
}

// ServerCmd contains sub-commands for the HTTP engine
func ServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "http commands",
	}
	cmd.AddCommand(createTokenCommand())
	return cmd
}

func createTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-proxy-token",
		Short: "Generates a random bearer token for the /proxy endpoint.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token := crypto.GenerateNonce()
			cmd.Println("Token:")
			cmd.Println()
			cmd.Println(token)
			cmd.Println()
			cmd.Println("Configure it as http.proxy.token on the wallet backend, " +
				"and as http.client.proxytoken on the wallets relaying through it.")
			return nil
		},
	}
}
