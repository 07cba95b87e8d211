// Package store persists the shell's key/value memory. A FileStore keeps
// every key in one snapshot file: a little-endian record format with a
// magic/version header and a CRC per value, optionally wrapped in a
// compressed and/or encrypted envelope, written atomically.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Storage is the persistence collaborator consumed by the shell. Load
// misses report false rather than erroring; Save buffers until Flush.
type Storage interface {
	Load(key string) ([]byte, bool)
	Save(key string, data []byte) error
	Flush() error
}

const (
	snapshotMagic   = "GLINTKV1"
	snapshotVersion = uint16(1)
	snapshotHeader  = 8 + 2 + 2 + 4
)

var (
	ErrInvalidMagic   = errors.New("store: invalid snapshot magic")
	ErrUnsupportedVer = errors.New("store: unsupported snapshot version")
	ErrMalformed      = errors.New("store: malformed snapshot")
)

// MemStore is an in-memory Storage for tests and ephemeral sessions.
type MemStore struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{m: map[string][]byte{}}
}

func (s *MemStore) Load(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

func (s *MemStore) Save(key string, data []byte) error {
	s.mu.Lock()
	s.m[key] = append([]byte(nil), data...)
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Flush() error { return nil }

// FileOptions control how a FileStore writes its snapshot.
type FileOptions struct {
	Compression bool
	// Password enables AES-256-GCM encryption of the snapshot when
	// non-empty.
	Password string
}

// FileStore is a Storage backed by a single snapshot file. A missing file
// yields an empty store; a corrupt snapshot is discarded and also yields an
// empty store. Only a wrong or missing password is surfaced, so the caller
// can prompt instead of silently losing data.
type FileStore struct {
	mu    sync.Mutex
	path  string
	opts  FileOptions
	data  map[string][]byte
	dirty bool
}

func OpenFile(path string, opts FileOptions) (*FileStore, error) {
	s := &FileStore{path: path, opts: opts, data: map[string][]byte{}}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read snapshot: %w", err)
	}

	if isEnvelope(raw) {
		raw, err = decodeEnvelope(raw, opts.Password)
		if err != nil {
			if errors.Is(err, ErrPasswordRequired) || errors.Is(err, ErrInvalidPassword) {
				return nil, err
			}
			return s, nil
		}
	}
	if data, err := decodeSnapshot(raw); err == nil {
		s.data = data
	}
	return s, nil
}

func (s *FileStore) Load(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

func (s *FileStore) Save(key string, data []byte) error {
	s.mu.Lock()
	s.data[key] = append([]byte(nil), data...)
	s.dirty = true
	s.mu.Unlock()
	return nil
}

// Flush writes the snapshot when anything changed since the last write.
func (s *FileStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	blob := encodeSnapshot(s.data)
	if s.opts.Compression || s.opts.Password != "" {
		var err error
		blob, err = encodeEnvelope(blob, s.opts)
		if err != nil {
			return err
		}
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: create snapshot dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return fmt.Errorf("store: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("store: commit snapshot: %w", err)
	}
	s.dirty = false
	return nil
}

func encodeSnapshot(data map[string][]byte) []byte {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]byte, snapshotHeader, snapshotHeader+len(data)*32)
	copy(out[:8], snapshotMagic)
	binary.LittleEndian.PutUint16(out[8:10], snapshotVersion)
	binary.LittleEndian.PutUint16(out[10:12], 0)
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(keys)))

	for _, k := range keys {
		v := data[k]
		out = appendU32(out, uint32(len(k)))
		out = append(out, k...)
		out = appendU32(out, uint32(len(v)))
		out = append(out, v...)
		out = appendU32(out, crc32.ChecksumIEEE(v))
	}
	return out
}

func decodeSnapshot(blob []byte) (map[string][]byte, error) {
	if len(blob) < snapshotHeader {
		return nil, ErrInvalidMagic
	}
	if string(blob[:8]) != snapshotMagic {
		return nil, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint16(blob[8:10]); v != snapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVer, v)
	}
	count := int(binary.LittleEndian.Uint32(blob[12:16]))

	// Cap the allocation hint by the smallest possible record size; a
	// corrupt count must fail per-record, not allocate gigabytes.
	hint := count
	if max := len(blob) / 12; hint > max {
		hint = max
	}
	data := make(map[string][]byte, hint)
	b := blob[snapshotHeader:]
	for i := 0; i < count; i++ {
		var key []byte
		var ok bool
		if key, b, ok = readChunk(b); !ok {
			return nil, fmt.Errorf("%w: record %d key", ErrMalformed, i)
		}
		var val []byte
		if val, b, ok = readChunk(b); !ok {
			return nil, fmt.Errorf("%w: record %d value", ErrMalformed, i)
		}
		if len(b) < 4 {
			return nil, fmt.Errorf("%w: record %d crc", ErrMalformed, i)
		}
		sum := binary.LittleEndian.Uint32(b[:4])
		b = b[4:]
		if crc32.ChecksumIEEE(val) != sum {
			return nil, fmt.Errorf("%w: record %d checksum", ErrMalformed, i)
		}
		data[string(key)] = val
	}
	return data, nil
}

func readChunk(src []byte) ([]byte, []byte, bool) {
	if len(src) < 4 {
		return nil, nil, false
	}
	ln := int(binary.LittleEndian.Uint32(src[:4]))
	src = src[4:]
	if ln < 0 || len(src) < ln {
		return nil, nil, false
	}
	return append([]byte(nil), src[:ln]...), src[ln:], true
}

func appendU32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}
