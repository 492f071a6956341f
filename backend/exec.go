/*
 * exec.go, part of chgbench.
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

package backend

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// outputTail is how much of a failed program's output goes into the error.
const outputTail = 512

// runner runs external compressors, one process per call.
type runner struct {
	log *zap.Logger
}

// run runs command with args in dir, and waits for it to finish. The
// output of the program is returned only as part of the error, if the
// program fails.
func (R runner) run(ctx context.Context, dir, command string, args ...string) error {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	R.log.Debug("running external compressor", zap.String("command", command), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		o := out.String()
		if len(o) > outputTail {
			o = "..." + o[len(o)-outputTail:]
		}
		o = strings.TrimSpace(o)
		if o == "" {
			return fmt.Errorf("%s: %w", command, err)
		}
		return fmt.Errorf("%s: %w: %s", command, err, o)
	}
	return nil
}

// inTempDir runs f in a fresh temporary directory, which is removed
// afterwards.
func inTempDir(prefix string, f func(dir string) error) error {
	dir, err := os.MkdirTemp("", "chgbench-"+prefix+"-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)
	return f(dir)
}

// readOutput reads a file the external program should have produced.
func readOutput(name string) ([]byte, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("compressor produced no output: %w", err)
	}
	return b, nil
}
