/*
 * Nuts node
 * Copyright (C) 2022 Nuts community
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

const (
	// LogFieldModule is the log field for the module name.
	LogFieldModule = "module"

	// LogFieldCredentialID is the log field key for the ID of a held credential.
	LogFieldCredentialID = "credentialID"
	// LogFieldCredentialFormat is the log field key for the format of a held credential (e.g. vc+sd-jwt).
	LogFieldCredentialFormat = "credentialFormat"
	// LogFieldCredentialIssuer is the log field key for the issuer of a credential.
	LogFieldCredentialIssuer = "credentialIssuer"
	// LogFieldCredentialConfiguration is the log field key for the ID of a credential configuration offered by an issuer.
	LogFieldCredentialConfiguration = "credentialConfiguration"

	// LogFieldFlowID is the log field key for the state token of an issuance or presentation flow.
	LogFieldFlowID = "flowID"
	// LogFieldInputDescriptor is the log field key for the ID of a Presentation Exchange input descriptor.
	LogFieldInputDescriptor = "inputDescriptor"
	// LogFieldVerifier is the log field key for the client ID of a verifier requesting a presentation.
	LogFieldVerifier = "verifier"

	// LogFieldStore is the log field key for the name of a store managed by the storage module.
	LogFieldStore = "store"

	// LogFieldAuditSubject is the log field of the subject (e.g. credential, verifier) of an audit event.
	LogFieldAuditSubject = "subject"
)
