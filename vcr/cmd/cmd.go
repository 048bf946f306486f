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
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/nuts-foundation/nuts-wallet/core"
	"github.com/nuts-foundation/nuts-wallet/vcr"
	"github.com/nuts-foundation/nuts-wallet/vcr/openid4vci"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// FlagSet contains flags relevant for VCR
func FlagSet() *pflag.FlagSet {
	defs := vcr.DefaultConfig()
	flagSet := pflag.NewFlagSet("vcr", pflag.ContinueOnError)
	flagSet.String("vcr.issuersb64u", defs.IssuersB64U, "Trusted credential issuers as base64url encoded JSON array of {credential_issuer_identifier, client_id} objects. "+
		"Added to the issuers configured in vcr.issuers. Use 'vcr encode-issuers' to create the value.")
	flagSet.String("vcr.redirecturi", defs.RedirectURI, "URI the authorization server redirects the user-agent to after the user authorized credential issuance.")
	flagSet.String("vcr.trustanchors.file", defs.TrustAnchors.File, "PEM file containing the root certificates credentials and request objects are verified against.")
	flagSet.String("vcr.trustanchors.b64u", defs.TrustAnchors.B64U, "Root certificates as base64url encoded JSON array of PEM strings. Combined with vcr.trustanchors.file. "+
		"Use 'vcr encode-trustanchors' to create the value.")
	flagSet.Duration("vcr.openid4vci.flowttl", defs.OpenID4VCI.FlowTTL, "Maximum time an issuance flow is kept, formatted as Golang duration (e.g. 10m, 1h).")
	flagSet.Duration("vcr.openid4vci.cleanupinterval", defs.OpenID4VCI.CleanupInterval, "Interval at which expired issuance flows are removed, formatted as Golang duration (e.g. 10m, 1h). 0 disables the cleanup.")
	flagSet.Bool("vcr.openid4vp.allowunsignedrequestobjects", defs.OpenID4VP.AllowUnsignedRequestObjects, "Accept request objects of verifiers that are unsigned or can't be verified against the trust anchors. "+
		"Only use this for testing.")
	return flagSet
}

// Cmd contains sub-commands for the VCR engine
func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vcr",
		Short: "Verifiable credential commands",
	}
	cmd.AddCommand(encodeIssuersCmd())
	cmd.AddCommand(encodeTrustAnchorsCmd())
	return cmd
}

func encodeIssuersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode-issuers [file]",
		Short: "Encodes a YAML or JSON list of issuers for use as vcr.issuersb64u.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			// YAML is a superset of JSON
			var issuers []openid4vci.IssuerConfig
			if err = yaml.Unmarshal(data, &issuers); err != nil {
				return fmt.Errorf("unable to parse issuers: %w", err)
			}
			for i, issuer := range issuers {
				if issuer.CredentialIssuerIdentifier == "" || issuer.ClientID == "" {
					return fmt.Errorf("issuer at index %d requires credential_issuer_identifier and client_id", i)
				}
			}
			return printB64UJSON(cmd, issuers)
		},
	}
}

func encodeTrustAnchorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode-trustanchors [file]",
		Short: "Encodes the certificates of a PEM file for use as vcr.trustanchors.b64u.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			certificates, err := core.ParseCertificates(data)
			if err != nil {
				return err
			}
			if len(certificates) == 0 {
				return fmt.Errorf("no certificates found in %s", args[0])
			}
			pems := make([]string, 0, len(certificates))
			for _, certificate := range certificates {
				pems = append(pems, string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certificate.Raw})))
			}
			return printB64UJSON(cmd, pems)
		},
	}
}

func printB64UJSON(cmd *cobra.Command, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	cmd.Println(base64.RawURLEncoding.EncodeToString(data))
	return nil
}
