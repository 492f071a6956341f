/*
 * config.go, part of chgbench.
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

// Package config holds the settings of a benchmark run. They come, from
// lowest to highest priority, from defaults, a chgbench.yaml file,
// CHGBENCH_* environment variables and command line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/artifact"
	"github.com/rmera/chgbench/backend"
	"go.uber.org/zap"
)

// Config holds all configuration for a run. The mapstructure tags are the
// configuration keys.
type Config struct {
	Workers      int            `mapstructure:"workers"`       //concurrent tasks, 0 means one per CPU
	LogLevel     string         `mapstructure:"log_level"`     //debug, info, warn or error
	LogFormat    string         `mapstructure:"log_format"`    //json or console
	MetricsFile  string         `mapstructure:"metrics_file"`  //the file remake merges its metrics into
	ReportFormat string         `mapstructure:"report_format"` //json or yaml, for metrics printed to stdout
	Smooth       SmoothConfig   `mapstructure:"smooth"`
	SZ3          SZ3Config      `mapstructure:"sz3"`
	Tthresh      TthreshConfig  `mapstructure:"tthresh"`
	Neurcomp     NeurcompConfig `mapstructure:"neurcomp"`
}

// SmoothConfig holds the smooth backend's configuration
type SmoothConfig struct {
	Divisor int     `mapstructure:"divisor"`
	Std     float64 `mapstructure:"std"`
	Codec   string  `mapstructure:"codec"`
}

// SZ3Config holds the sz3 backend's configuration
type SZ3Config struct {
	Command    string  `mapstructure:"command"`
	Mode       string  `mapstructure:"mode"`
	ErrorBound float64 `mapstructure:"error_bound"`
}

// TthreshConfig holds the tthresh backend's configuration
type TthreshConfig struct {
	Command string  `mapstructure:"command"`
	Target  string  `mapstructure:"target"`
	Value   float64 `mapstructure:"value"`
}

// NeurcompConfig holds the neurcomp backend's configuration
type NeurcompConfig struct {
	Python           string  `mapstructure:"python"`
	Dir              string  `mapstructure:"dir"`
	CompressionRatio float64 `mapstructure:"compression_ratio"`
	Layers           int     `mapstructure:"layers"`
	CUDA             bool    `mapstructure:"cuda"`
}

// Validate checks the settings that are not specific to one backend. The
// backend constructors check their own.
func (C *Config) Validate() error {
	if C.Workers < 0 {
		return &chgbench.ConfigError{Msg: fmt.Sprintf("workers must not be negative, got %d", C.Workers)}
	}
	switch strings.ToLower(C.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return &chgbench.ConfigError{Msg: fmt.Sprintf("unknown log level %q", C.LogLevel)}
	}
	switch C.LogFormat {
	case "json", "console":
	default:
		return &chgbench.ConfigError{Msg: fmt.Sprintf("unknown log format %q", C.LogFormat)}
	}
	switch C.ReportFormat {
	case "json", "yaml":
	default:
		return &chgbench.ConfigError{Msg: fmt.Sprintf("unknown report format %q", C.ReportFormat)}
	}
	if C.MetricsFile == "" {
		return &chgbench.ConfigError{Msg: "no metrics file given"}
	}
	if _, err := artifact.ParseCodec(C.Smooth.Codec); err != nil {
		return &chgbench.ConfigError{Msg: "smooth", Err: err}
	}
	return nil
}

// Backends returns the options to build a backend from.
func (C *Config) Backends(log *zap.Logger) (backend.Options, error) {
	codec, err := artifact.ParseCodec(C.Smooth.Codec)
	if err != nil {
		return backend.Options{}, &chgbench.ConfigError{Msg: "smooth", Err: err}
	}
	return backend.Options{
		Smooth:   backend.SmoothConfig{Divisor: C.Smooth.Divisor, Std: C.Smooth.Std, Codec: codec},
		SZ3:      backend.SZ3Config(C.SZ3),
		Tthresh:  backend.TthreshConfig(C.Tthresh),
		Neurcomp: backend.NeurcompConfig(C.Neurcomp),
		Log:      log,
	}, nil
}
