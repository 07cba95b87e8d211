package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMemStoreRoundTrip(t *testing.T) {
	s := NewMemStore()
	if _, ok := s.Load("missing"); ok {
		t.Fatal("empty store reported a value")
	}
	if err := s.Save("k", []byte("v")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok := s.Load("k")
	if !ok || string(got) != "v" {
		t.Fatalf("Load = %q, %v", got, ok)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bin")

	s, err := OpenFile(path, FileOptions{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := s.Save("layout", []byte{1, 2, 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	s2, err := OpenFile(path, FileOptions{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := s2.Load("layout")
	if !ok || !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Fatalf("Load after reopen = %v, %v", got, ok)
	}
}

func TestFileStoreFlushSkipsWhenClean(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bin")
	s, err := OpenFile(path, FileOptions{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := s.Save("k", []byte("v")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	before, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}

	// Nothing changed, so nothing should be rewritten.
	if err := s.Flush(); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	after, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) {
		t.Fatal("clean Flush rewrote the snapshot")
	}
}

func TestFileStoreMissingFileStartsEmpty(t *testing.T) {
	s, err := OpenFile(filepath.Join(t.TempDir(), "nope.bin"), FileOptions{})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, ok := s.Load("anything"); ok {
		t.Fatal("missing file produced data")
	}
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bin")
	if err := os.WriteFile(path, []byte("not a snapshot at all"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := OpenFile(path, FileOptions{})
	if err != nil {
		t.Fatalf("OpenFile on corrupt file: %v", err)
	}
	if _, ok := s.Load("anything"); ok {
		t.Fatal("corrupt file produced data")
	}
}

func TestFileStoreCompression(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bin")
	s, err := OpenFile(path, FileOptions{Compression: true})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	big := bytes.Repeat([]byte("abcd"), 4096)
	if err := s.Save("blob", big); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !isEnvelope(raw) {
		t.Fatal("compressed snapshot missing envelope header")
	}
	if len(raw) >= len(big) {
		t.Fatalf("compressed snapshot not smaller: %d >= %d", len(raw), len(big))
	}

	s2, err := OpenFile(path, FileOptions{Compression: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := s2.Load("blob")
	if !ok || !bytes.Equal(got, big) {
		t.Fatal("compressed round trip lost data")
	}
}

func TestFileStorePassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.bin")
	s, err := OpenFile(path, FileOptions{Password: "hunter2"})
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if err := s.Save("secret", []byte("payload")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if _, err := OpenFile(path, FileOptions{}); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("open without password: %v", err)
	}
	if _, err := OpenFile(path, FileOptions{Password: "wrong"}); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("open with wrong password: %v", err)
	}

	s2, err := OpenFile(path, FileOptions{Password: "hunter2"})
	if err != nil {
		t.Fatalf("open with password: %v", err)
	}
	got, ok := s2.Load("secret")
	if !ok || string(got) != "payload" {
		t.Fatal("encrypted round trip lost data")
	}
}

func TestSnapshotRejectsBadMagic(t *testing.T) {
	blob := encodeSnapshot(map[string][]byte{"k": []byte("v")})
	blob[0] ^= 0xff
	if _, err := decodeSnapshot(blob); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("decodeSnapshot = %v, want ErrInvalidMagic", err)
	}
}

func TestSnapshotRejectsHugeCount(t *testing.T) {
	// A record count the blob cannot possibly hold must fail on the first
	// record, without preallocating for it.
	blob := encodeSnapshot(map[string][]byte{})
	binary.LittleEndian.PutUint32(blob[12:16], 0xffffffff)
	if _, err := decodeSnapshot(blob); !errors.Is(err, ErrMalformed) {
		t.Fatalf("decodeSnapshot = %v, want ErrMalformed", err)
	}
}

func TestSnapshotRejectsTamperedValue(t *testing.T) {
	blob := encodeSnapshot(map[string][]byte{"k": []byte("value-under-test")})
	blob[len(blob)-5] ^= 0xff
	if _, err := decodeSnapshot(blob); err == nil {
		t.Fatal("tampered snapshot decoded cleanly")
	}
}
