/*
 * errors.go, part of chgbench.
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

package chgbench

import (
	"errors"
	"fmt"
	"strings"
)

// Error is the interface for errors that all packages in chgbench return.
// The Decorate method adds the name of a function in the calling stack (and,
// optionally, extra information in the form "FunctionName: info") and returns
// the current decoration. If passed an empty string, it only returns the
// current decoration.
// Critical errors abort the processing of the whole file or run, non-critical
// ones only mean that one dataset is skipped.
type Error interface {
	Error() string
	Decorate(string) []string
	Critical() bool
}

// FormatError reports a malformed CHGCAR, provenance or artifact file.
// It is fatal for the file it refers to.
type FormatError struct {
	File string
	Line int //0 if the error is not tied to a line
	Msg  string
	Err  error
	deco []string
}

func (E *FormatError) Error() string {
	var b strings.Builder
	b.WriteString("format error")
	if E.File != "" {
		fmt.Fprintf(&b, " in %s", E.File)
	}
	if E.Line > 0 {
		fmt.Fprintf(&b, ", line %d", E.Line)
	}
	fmt.Fprintf(&b, ": %s", E.Msg)
	if E.Err != nil {
		fmt.Fprintf(&b, ": %v", E.Err)
	}
	return b.String()
}

func (E *FormatError) Decorate(dec string) []string {
	if dec != "" {
		E.deco = append(E.deco, dec)
	}
	return E.deco
}

func (E *FormatError) Critical() bool { return true }

func (E *FormatError) Unwrap() error { return E.Err }

// MissingProvenanceError means that some of the files needed to rebuild a
// dataset are absent. The dataset is skipped.
type MissingProvenanceError struct {
	Key     string
	Missing []string
	deco    []string
}

func (E *MissingProvenanceError) Error() string {
	return fmt.Sprintf("missing provenance for dataset %s: %s", E.Key, strings.Join(E.Missing, ", "))
}

func (E *MissingProvenanceError) Decorate(dec string) []string {
	if dec != "" {
		E.deco = append(E.deco, dec)
	}
	return E.deco
}

func (E *MissingProvenanceError) Critical() bool { return false }

// BackendError is returned when a compression backend fails on one grid.
// The dataset is dropped from the report.
type BackendError struct {
	Backend string
	Key     string
	Field   Field
	Op      string //"compress" or "decompress"
	Err     error
	deco    []string
}

func (E *BackendError) Error() string {
	s := fmt.Sprintf("backend %s: %s", E.Backend, E.Op)
	if E.Key != "" {
		s += " " + E.Key
	}
	if E.Field != "" {
		s += " (" + string(E.Field) + ")"
	}
	if E.Err != nil {
		s += ": " + E.Err.Error()
	}
	return s
}

func (E *BackendError) Decorate(dec string) []string {
	if dec != "" {
		E.deco = append(E.deco, dec)
	}
	return E.deco
}

func (E *BackendError) Critical() bool { return false }

func (E *BackendError) Unwrap() error { return E.Err }

// ConfigError aborts a whole run before anything is scheduled.
type ConfigError struct {
	Msg  string
	Err  error
	deco []string
}

func (E *ConfigError) Error() string {
	if E.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", E.Msg, E.Err)
	}
	return "configuration error: " + E.Msg
}

func (E *ConfigError) Decorate(dec string) []string {
	if dec != "" {
		E.deco = append(E.deco, dec)
	}
	return E.deco
}

func (E *ConfigError) Critical() bool { return true }

func (E *ConfigError) Unwrap() error { return E.Err }

// ErrDecorate adds caller to the decoration of err, if err (or an error it
// wraps) implements Error. It returns err unchanged otherwise.
func ErrDecorate(err error, caller string) error {
	var e Error
	if errors.As(err, &e) {
		e.Decorate(caller)
	}
	return err
}

// Trail returns the decoration of err, or nil if err does not implement Error.
func Trail(err error) []string {
	var e Error
	if errors.As(err, &e) {
		return e.Decorate("")
	}
	return nil
}

// IsCritical returns true if err is an Error and is critical.
func IsCritical(err error) bool {
	var e Error
	return errors.As(err, &e) && e.Critical()
}
