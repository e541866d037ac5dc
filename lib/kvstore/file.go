// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package kvstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/taiga/lib/codec"
	"github.com/bureau-foundation/taiga/lib/netutil"
)

const (
	fileMagic   = "TGST"
	fileVersion = 1
	headerSize  = 4 + 1 + 1 + 4 + 32

	// maxPayloadSize bounds the uncompressed payload. The largest entry
	// is a project list that itself arrived in one bounded response.
	maxPayloadSize = int(netutil.MaxResponseSize)
)

// ErrCorrupt is returned by OpenFile when the state file fails header
// or checksum validation.
var ErrCorrupt = errors.New("kvstore: state file is corrupt")

// checksumKey is the BLAKE3 key for state file checksums: the ASCII
// domain name zero-padded to 32 bytes.
var checksumKey = [32]byte{
	't', 'a', 'i', 'g', 'a', '.', 's', 't', 'a', 't', 'e', '.',
	'p', 'a', 'y', 'l', 'o', 'a', 'd',
}

func checksum(payload []byte) [32]byte {
	hasher, err := blake3.NewKeyed(checksumKey[:])
	if err != nil {
		panic("kvstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(payload)
	var sum [32]byte
	copy(sum[:], hasher.Sum(nil))
	return sum
}

// FileOptions configures a File store.
type FileOptions struct {
	// Compression applied to the payload on write. Reads accept any
	// compression regardless of this setting.
	Compression Compression

	// Logger receives debug records for loads and writes. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// File is a Store persisted to a single state file.
type File struct {
	path        string
	compression Compression
	logger      *slog.Logger

	mu      sync.Mutex
	entries entries
}

// OpenFile loads the state file at path. A missing file yields an empty
// store; the file (and its directory, mode 0700) is created on the
// first write.
func OpenFile(path string, options FileOptions) (*File, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := &File{
		path:        path,
		compression: options.Compression,
		logger:      logger,
		entries:     make(entries),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("state file absent, starting empty", "path", path)
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore: reading %s: %w", path, err)
	}

	loaded, err := decodeFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	store.entries = loaded
	logger.Debug("state file loaded", "path", path, "entries", len(loaded))
	return store, nil
}

// Path returns the state file location.
func (f *File) Path() string { return f.path }

// Get implements Store.
func (f *File) Get(key string, value any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries.get(key, value)
}

// Apply implements Store. The in-memory view only changes after the new
// file has been written, so a failed write leaves both unchanged.
func (f *File) Apply(changes map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next, err := f.entries.with(changes)
	if err != nil {
		return err
	}
	data, err := encodeFile(next, f.compression)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("kvstore: creating state directory: %w", err)
	}
	if err := atomic.WriteFile(f.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("kvstore: writing %s: %w", f.path, err)
	}
	f.entries = next
	f.logger.Debug("state file written", "path", f.path, "entries", len(next), "bytes", len(data))
	return nil
}

// Keys returns the stored keys in sorted order.
func (f *File) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries.keys()
}

func encodeFile(contents entries, compression Compression) ([]byte, error) {
	payload, err := codec.Marshal(map[string]codec.RawMessage(contents))
	if err != nil {
		return nil, fmt.Errorf("kvstore: encoding state: %w", err)
	}
	if len(payload) > maxPayloadSize {
		return nil, fmt.Errorf("kvstore: state payload too large (%d bytes)", len(payload))
	}

	body, err := compress(payload, compression)
	if errors.Is(err, errIncompressible) {
		compression, body = CompressionNone, payload
	} else if err != nil {
		return nil, fmt.Errorf("kvstore: %w", err)
	}

	sum := checksum(payload)
	data := make([]byte, 0, headerSize+len(body))
	data = append(data, fileMagic...)
	data = append(data, fileVersion, byte(compression))
	data = binary.BigEndian.AppendUint32(data, uint32(len(payload)))
	data = append(data, sum[:]...)
	data = append(data, body...)
	return data, nil
}

func decodeFile(data []byte) (entries, error) {
	if len(data) < headerSize || string(data[:4]) != fileMagic {
		return nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	if data[4] != fileVersion {
		return nil, fmt.Errorf("kvstore: unsupported state file version %d", data[4])
	}
	compression := Compression(data[5])
	size := int(binary.BigEndian.Uint32(data[6:10]))
	if size > maxPayloadSize {
		return nil, fmt.Errorf("%w: header claims a %d byte payload", ErrCorrupt, size)
	}
	var want [32]byte
	copy(want[:], data[10:headerSize])

	payload, err := decompress(data[headerSize:], compression, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if checksum(payload) != want {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	var decoded map[string]codec.RawMessage
	if err := codec.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if decoded == nil {
		decoded = make(map[string]codec.RawMessage)
	}
	return entries(decoded), nil
}
