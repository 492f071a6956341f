/*
 * run.go, part of chgbench.
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
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rmera/chgbench"
	"github.com/rmera/chgbench/backend"
	"github.com/rmera/chgbench/bench"
	"github.com/rmera/chgbench/config"
	"github.com/rmera/chgbench/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// The methods a backend command can run.
const (
	Compress     = "compress"
	Decompress   = "decompress"
	Remake       = "remake"
	RemakeNoFile = "remake_no_file"
)

var methods = []string{Compress, Decompress, Remake, RemakeNoFile}

func backendCmd(out io.Writer, name, params, short string, set paramsFunc) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <folder> <" + strings.Join(methods, "|") + "> " + params,
		Short: short,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 {
				return &chgbench.ConfigError{Msg: "usage: chgbench " + cmd.Use}
			}
			folder, method := args[0], args[1]
			if err := bench.CheckDir(folder); err != nil {
				return err
			}
			if !validMethod(method) {
				return &chgbench.ConfigError{Msg: fmt.Sprintf("unknown method %q (available: %s)", method, strings.Join(methods, ", "))}
			}
			file, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(file, cmd.Flags())
			if err != nil {
				return err
			}
			if err := set(cfg, args[2:]); err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			defer log.Sync()
			opts, err := cfg.Backends(log)
			if err != nil {
				return err
			}
			b, err := backend.New(name, opts)
			if err != nil {
				return err
			}
			return run(cmd.Context(), out, cfg, bench.New(b, cfg.Workers, log), folder, method, log)
		},
	}
}

func validMethod(m string) bool {
	for _, v := range methods {
		if m == v {
			return true
		}
	}
	return false
}

func run(ctx context.Context, out io.Writer, cfg *config.Config, O *bench.Orchestrator, folder, method string, log *zap.Logger) error {
	files, err := bench.ListFiles(folder)
	if err != nil {
		return &chgbench.ConfigError{Msg: "listing " + folder, Err: err}
	}
	switch method {
	case Compress:
		_, m := O.CompressDirectory(ctx, files)
		return bench.WriteReport(out, m, cfg.ReportFormat)
	case Decompress:
		_, m := O.DecompressDirectory(ctx, files)
		return bench.WriteReport(out, m, cfg.ReportFormat)
	case Remake:
		originals, cm := O.CompressDirectory(ctx, files)
		//the artifacts and provenance files are new.
		if files, err = bench.ListFiles(folder); err != nil {
			return err
		}
		reconstructed, dm := O.DecompressDirectory(ctx, files)
		all := bench.GenerateMetrics(cm, dm, bench.ComputeFidelity(originals, reconstructed))
		label := backend.Label(O.Backend())
		if err := bench.WriteMetricsFile(cfg.MetricsFile, all, label); err != nil {
			return err
		}
		log.Info("metrics written", zap.String("file", cfg.MetricsFile), zap.String("label", label), zap.Int("datasets", len(all)))
		return nil
	case RemakeNoFile:
		compressed, cm := O.CompressInMemory(ctx, files)
		reconstructed, dm := O.DecompressInMemory(ctx, compressed)
		originals := make(map[string]*bench.Dataset, len(compressed))
		for k, c := range compressed {
			originals[k] = c.Dataset
		}
		all := bench.GenerateMetrics(cm, dm, bench.ComputeFidelity(originals, reconstructed))
		return bench.WriteReport(out, all, cfg.ReportFormat)
	}
	return &chgbench.ConfigError{Msg: "unknown method " + method}
}
