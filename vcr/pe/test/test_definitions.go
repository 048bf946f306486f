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

// Package test contains presentation definitions used in tests.
package test

// SDJWTFamilyName requests the family name from an SD-JWT PID.
const SDJWTFamilyName = `
{
  "id": "pid-family-name",
  "input_descriptors": [
    {
      "id": "pid",
      "format": {
        "vc+sd-jwt": {
          "sd-jwt_alg_values": ["ES256"]
        }
      },
      "constraints": {
        "limit_disclosure": "required",
        "fields": [
          {
            "name": "Credential type",
            "path": ["$.vct"],
            "filter": {
              "type": "string",
              "const": "urn:eu.europa.ec.eudi:pid:1"
            }
          },
          {
            "name": "Family name",
            "path": ["$.family_name"]
          }
        ]
      }
    }
  ]
}
`

// MDocFamilyName requests the family name from an mdoc PID.
const MDocFamilyName = `
{
  "id": "mdoc-family-name",
  "input_descriptors": [
    {
      "id": "eu.europa.ec.eudi.pid.1",
      "format": {
        "mso_mdoc": {
          "alg": ["ES256"]
        }
      },
      "constraints": {
        "limit_disclosure": "required",
        "fields": [
          {
            "name": "Family name",
            "path": ["$['eu.europa.ec.eudi.pid.1']['family_name']"],
            "intent_to_retain": false
          }
        ]
      }
    }
  ]
}
`

// SDJWTAndMDoc requests both an SD-JWT PID and an mdoc driving license.
const SDJWTAndMDoc = `
{
  "id": "pid-and-mdl",
  "input_descriptors": [
    {
      "id": "pid",
      "format": {
        "vc+sd-jwt": {}
      },
      "constraints": {
        "fields": [
          {
            "name": "Family name",
            "path": ["$.family_name"]
          }
        ]
      }
    },
    {
      "id": "org.iso.18013.5.1.mDL",
      "format": {
        "mso_mdoc": {}
      },
      "constraints": {
        "fields": [
          {
            "name": "Driving privileges",
            "path": ["$['org.iso.18013.5.1.mDL']['driving_privileges']"]
          }
        ]
      }
    }
  ]
}
`

// Address requests parts of the address and the nationalities, using both dotted and bracket notation.
const Address = `
{
  "id": "address",
  "input_descriptors": [
    {
      "id": "address",
      "constraints": {
        "fields": [
          {
            "name": "City",
            "path": ["$.address.locality", "$.locality"]
          },
          {
            "name": "Street",
            "path": ["$['address']['street_address']"],
            "optional": true
          },
          {
            "path": ["$.nationalities[0]"],
            "filter": {
              "type": "string",
              "enum": ["DE", "NL"]
            }
          }
        ]
      }
    }
  ]
}
`
