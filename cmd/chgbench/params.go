/*
 * params.go, part of chgbench.
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

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/config"
)

// A paramsFunc sets the backend parameters given on the command line in
// cfg. Parameters not given keep their configured values.
type paramsFunc func(cfg *config.Config, params []string) error

func tooMany(params []string, max int) error {
	if len(params) > max {
		return &chgbench.ConfigError{Msg: fmt.Sprintf("expected at most %d parameters, got %d: %s", max, len(params), strings.Join(params, " "))}
	}
	return nil
}

func parseInt(name, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, &chgbench.ConfigError{Msg: "bad " + name, Err: err}
	}
	return v, nil
}

func parseFloat(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &chgbench.ConfigError{Msg: "bad " + name, Err: err}
	}
	return v, nil
}

func smoothParams(cfg *config.Config, params []string) error {
	if err := tooMany(params, 2); err != nil {
		return err
	}
	var err error
	if len(params) > 0 {
		if cfg.Smooth.Divisor, err = parseInt("dims_divisor", params[0]); err != nil {
			return err
		}
	}
	if len(params) > 1 {
		if cfg.Smooth.Std, err = parseFloat("smear_std", params[1]); err != nil {
			return err
		}
	}
	return nil
}

func sz3Params(cfg *config.Config, params []string) error {
	if err := tooMany(params, 1); err != nil {
		return err
	}
	var err error
	if len(params) > 0 {
		cfg.SZ3.ErrorBound, err = parseFloat("error_bound", params[0])
	}
	return err
}

func tthreshParams(cfg *config.Config, params []string) error {
	if err := tooMany(params, 2); err != nil {
		return err
	}
	var err error
	if len(params) > 0 {
		cfg.Tthresh.Target = params[0]
	}
	if len(params) > 1 {
		cfg.Tthresh.Value, err = parseFloat("target value", params[1])
	}
	return err
}

func neurcompParams(cfg *config.Config, params []string) error {
	if err := tooMany(params, 2); err != nil {
		return err
	}
	var err error
	if len(params) > 0 {
		if cfg.Neurcomp.CompressionRatio, err = parseFloat("compression_ratio", params[0]); err != nil {
			return err
		}
	}
	if len(params) > 1 {
		cfg.Neurcomp.Layers, err = parseInt("layers", params[1])
	}
	return err
}
