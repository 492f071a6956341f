/*
 * loader.go, part of chgbench.
 *
 * Copyright 2024 The chgbench authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rmera/chgbench"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read, so the key
// smooth.divisor is set by CHGBENCH_SMOOTH_DIVISOR.
const EnvPrefix = "CHGBENCH"

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"workers":      "workers",
	"log-level":    "log_level",
	"log-format":   "log_format",
	"metrics-file": "metrics_file",
	"format":       "report_format",
}

// Load loads the configuration. Every key needs a default in setDefaults,
// or environment variables won't be seen for it. If file is empty, chgbench.yaml is looked
// for in the current directory and in $HOME/.config/chgbench, and it is not
// an error if there is none. flags can be nil; the ones in it that were set
// override every other source.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, &chgbench.ConfigError{Msg: "reading " + file, Err: err}
		}
	} else {
		v.SetConfigName("chgbench")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "chgbench"))
		}
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, &chgbench.ConfigError{Msg: "reading configuration", Err: err}
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, &chgbench.ConfigError{Msg: "binding flag " + name, Err: err}
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &chgbench.ConfigError{Msg: "decoding configuration", Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("metrics_file", "metrics.json")
	v.SetDefault("report_format", "json")

	v.SetDefault("smooth.divisor", 2)
	v.SetDefault("smooth.std", 1.0)
	v.SetDefault("smooth.codec", "gz")

	v.SetDefault("sz3.command", "sz3")
	v.SetDefault("sz3.mode", "REL")
	v.SetDefault("sz3.error_bound", 1e-4)

	v.SetDefault("tthresh.command", "tthresh")
	v.SetDefault("tthresh.target", "e")
	v.SetDefault("tthresh.value", 1e-3)

	v.SetDefault("neurcomp.python", "python")
	v.SetDefault("neurcomp.dir", "lib/neurcomp")
	v.SetDefault("neurcomp.compression_ratio", 100.0)
	v.SetDefault("neurcomp.layers", 8)
	v.SetDefault("neurcomp.cuda", false)
}
