// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/browser"
)

// replaceOpenURL swaps the platform opener for the duration of the test.
func replaceOpenURL(t *testing.T, fn func(url string) error) {
	t.Helper()
	original := openURL
	openURL = fn
	t.Cleanup(func() { openURL = original })
}

func TestSystemUsesBrowserVariable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}
	dir := t.TempDir()
	record := filepath.Join(dir, "opened")
	script := filepath.Join(dir, "fake-browser")
	content := "#!/bin/sh\necho \"$@\" > " + record + "\n"
	if err := os.WriteFile(script, []byte(content), 0700); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BROWSER", script)

	if err := (System{}).Open("https://taiga.example/project/club"); err != nil {
		t.Fatalf("Open: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		data, err := os.ReadFile(record)
		if err == nil && strings.TrimSpace(string(data)) == "https://taiga.example/project/club" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("browser command did not receive the URL (read %q, %v)", data, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSystemRejectsNonWebURL(t *testing.T) {
	t.Setenv("BROWSER", "true")
	if err := (System{}).Open("file:///etc/passwd"); err == nil {
		t.Error("Open accepted a file URL")
	}
}

func TestPrinter(t *testing.T) {
	var buffer bytes.Buffer
	if err := (Printer{Output: &buffer}).Open("https://taiga.example"); err != nil {
		t.Fatal(err)
	}
	if buffer.String() != "https://taiga.example\n" {
		t.Errorf("output = %q", buffer.String())
	}
}

func TestSystemBlankBrowserVariableUsesPlatformHandler(t *testing.T) {
	var opened []string
	replaceOpenURL(t, func(url string) error {
		opened = append(opened, url)
		return nil
	})
	t.Setenv("BROWSER", "   ")

	if err := (System{}).Open("https://taiga.example/project/club"); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(opened) != 1 || opened[0] != "https://taiga.example/project/club" {
		t.Errorf("platform handler opened %v", opened)
	}
}

func TestSystemConcurrentOpensKeepTheirOutput(t *testing.T) {
	t.Setenv("BROWSER", "")
	outputs := make(map[string]io.Writer)
	for i := range 20 {
		outputs[fmt.Sprintf("https://taiga.example/project/club/us/%d", i)] = &bytes.Buffer{}
	}

	var mu sync.Mutex
	var mismatched []string
	replaceOpenURL(t, func(url string) error {
		time.Sleep(time.Millisecond)
		if browser.Stdout != outputs[url] || browser.Stderr != outputs[url] {
			mu.Lock()
			mismatched = append(mismatched, url)
			mu.Unlock()
		}
		return nil
	})

	var wg sync.WaitGroup
	for url, output := range outputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := (System{Output: output}).Open(url); err != nil {
				t.Errorf("Open(%s): %v", url, err)
			}
		}()
	}
	wg.Wait()
	if len(mismatched) > 0 {
		t.Errorf("%d opens wrote to another call's output: %v", len(mismatched), mismatched)
	}
}
