// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package browser opens URLs in the user's web browser.
package browser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/browser"
)

// System opens URLs with the command named by $BROWSER when it is set,
// and with the platform's default handler otherwise.
type System struct {
	// Output receives anything the browser command prints. Defaults to
	// discarding it, so a launched browser cannot scribble over a
	// terminal UI.
	Output io.Writer
}

// Open implements controller.Opener.
func (s System) Open(url string) error {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("refusing to open non-web URL %q", url)
	}
	output := s.Output
	if output == nil {
		output = io.Discard
	}

	if fields := strings.Fields(os.Getenv("BROWSER")); len(fields) > 0 {
		cmd := exec.Command(fields[0], append(fields[1:], url)...)
		cmd.Stdout = output
		cmd.Stderr = output
		if err := cmd.Start(); err != nil {
			return fmt.Errorf("starting $BROWSER: %w", err)
		}
		go cmd.Wait()
		return nil
	}
	return openDefault(url, output)
}

var (
	// defaultMu serializes use of the pkg/browser output globals.
	defaultMu sync.Mutex

	// openURL is replaced in tests.
	openURL = browser.OpenURL
)

// openDefault opens url with the platform handler, sending its output
// to output.
func openDefault(url string, output io.Writer) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	browser.Stdout = output
	browser.Stderr = output
	return openURL(url)
}

// Printer writes URLs instead of opening them, for headless sessions.
type Printer struct {
	Output io.Writer
}

// Open implements controller.Opener.
func (p Printer) Open(url string) error {
	_, err := fmt.Fprintln(p.Output, url)
	return err
}
