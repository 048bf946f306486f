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
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	defaultConfigFile = "nuts.yaml"
	configFileFlag    = "configfile"
	// envPrefix is the prefix of environment variables holding config, e.g. NUTS_VCR_REDIRECTURI for vcr.redirecturi.
	envPrefix         = "NUTS_"
	keyDelimiter      = "."
	listSeparator     = ","
)

// configSources loads config into a koanf map, from lowest to highest precedence:
// struct defaults, flag defaults, the config file, environment variables and flags set on the command line.
type configSources struct {
	defaults interface{}
	flags    *pflag.FlagSet
}

func (s configSources) load(target *koanf.Koanf) error {
	if err := target.Load(structs.Provider(s.defaults, "koanf"), nil); err != nil {
		return err
	}
	// posflag only takes unchanged flags when the key is absent, so loading the flags first provides their defaults
	if err := target.Load(posflag.Provider(s.flags, keyDelimiter, target), nil); err != nil {
		return err
	}
	if configFile := s.configFile(); configFile != "" {
		if err := target.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := target.Load(env.ProviderWithValue(envPrefix, keyDelimiter, envKeyValue), nil); err != nil {
		return err
	}
	// command line flags override everything
	return target.Load(posflag.Provider(s.flags, keyDelimiter, target), nil)
}

// configFile returns the config file set on the command line, through the environment or the default.
func (s configSources) configFile() string {
	k := koanf.New(keyDelimiter)
	_ = k.Load(env.Provider(envPrefix, keyDelimiter, envKey), nil)
	_ = k.Load(posflag.Provider(s.flags, keyDelimiter, k), nil)
	return k.String(configFileFlag)
}

// envKey maps NUTS_VCR_OPENID4VCI_FLOWTTL to vcr.openid4vci.flowttl.
func envKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(name, envPrefix)), "_", keyDelimiter)
}

// envKeyValue maps the environment variable to its config key, splitting comma separated values into a list.
func envKeyValue(name string, value string) (string, interface{}) {
	if !strings.Contains(value, listSeparator) {
		return envKey(name), value
	}
	values := strings.Split(value, listSeparator)
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}
	return envKey(name), values
}
