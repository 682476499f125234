// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package butt

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// wellKnownPaths are the common BUTT install locations checked after
// PATH lookup fails.
var wellKnownPaths = []string{
	"/usr/bin/butt",
	"/usr/local/bin/butt",
	"/opt/butt/butt",
	"/snap/bin/butt",
}

// Locate finds the BUTT executable.
//
// # Description
//
// Tries PATH first (exec.LookPath), then a short list of well-known
// install locations, then the user's local bin directories. When
// nothing matches, returns the bare name "butt" with found=false so
// callers can still report a useful path in error messages.
//
// # Outputs
//
//   - string: Path to the executable, or "butt" when not found.
//   - bool: Whether the returned path exists.
func Locate() (string, bool) {
	if path, err := exec.LookPath("butt"); err == nil {
		slog.Info("found butt in PATH", "path", path)
		return path, true
	}

	candidates := append([]string{}, wellKnownPaths...)
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".local", "bin", "butt"),
			filepath.Join(home, "bin", "butt"),
		)
	}

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			slog.Info("found butt", "path", path)
			return path, true
		}
	}

	slog.Warn("could not find butt executable; install it or set BUTT_PATH")
	return "butt", false
}
