package glint

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sync"
)

var errMalformedMemory = errors.New("malformed memory blob")

// Memory is the UI's persistent key/value state: widget positions, collapse
// flags, whatever the update function wants to survive a restart. Safe for
// concurrent use.
type Memory struct {
	mu   sync.RWMutex
	vals map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{vals: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vals[key]
	return v, ok
}

func (m *Memory) Set(key string, val []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = append([]byte(nil), val...)
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vals, key)
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vals)
}

// Encode flattens the memory into a length-prefixed binary blob.
func (m *Memory) Encode() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var buf bytes.Buffer
	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(m.vals)))
	buf.Write(u32[:])
	for k, v := range m.vals {
		binary.LittleEndian.PutUint32(u32[:], uint32(len(k)))
		buf.Write(u32[:])
		buf.WriteString(k)
		binary.LittleEndian.PutUint32(u32[:], uint32(len(v)))
		buf.Write(u32[:])
		buf.Write(v)
	}
	return buf.Bytes()
}

// DecodeMemory parses a blob produced by Encode. A truncated or otherwise
// malformed blob yields an error, never a partial memory.
func DecodeMemory(data []byte) (*Memory, error) {
	if len(data) < 4 {
		return nil, errMalformedMemory
	}
	count := binary.LittleEndian.Uint32(data[:4])
	off := 4

	// The count is untrusted; cap the allocation hint by the smallest
	// possible record size so a corrupt blob fails on bounds checks, not
	// on a giant allocation.
	hint := int(count)
	if max := len(data) / 8; hint > max {
		hint = max
	}
	vals := make(map[string][]byte, hint)
	for i := uint32(0); i < count; i++ {
		k, n, err := readBlob(data[off:])
		if err != nil {
			return nil, err
		}
		off += n
		v, n, err := readBlob(data[off:])
		if err != nil {
			return nil, err
		}
		off += n
		vals[string(k)] = append([]byte(nil), v...)
	}
	return &Memory{vals: vals}, nil
}

func readBlob(data []byte) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, errMalformedMemory
	}
	n := binary.LittleEndian.Uint32(data[:4])
	if uint32(len(data)-4) < n {
		return nil, 0, errMalformedMemory
	}
	return data[4 : 4+n], 4 + int(n), nil
}
