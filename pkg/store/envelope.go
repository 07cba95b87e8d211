package store

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	envelopeMagic   = "GLINTENV"
	envelopeVersion = uint16(1)
	envFlagComp     = uint16(1 << 0)
	envFlagEnc      = uint16(1 << 1)
	envSaltSize     = 16
	envNonceSize    = 12
	envHeaderSize   = len(envelopeMagic) + 2 + 2 + envSaltSize + envNonceSize + 8
	kdfIterations   = 200000
)

var (
	ErrPasswordRequired = errors.New("store: password required")
	ErrInvalidPassword  = errors.New("store: invalid password")
	ErrInvalidEnvelope  = errors.New("store: invalid envelope")
)

func isEnvelope(b []byte) bool {
	return len(b) >= len(envelopeMagic) && string(b[:len(envelopeMagic)]) == envelopeMagic
}

func encodeEnvelope(payload []byte, opts FileOptions) ([]byte, error) {
	flags := uint16(0)
	if opts.Compression {
		flags |= envFlagComp
		var err error
		payload, err = compressBytes(payload)
		if err != nil {
			return nil, err
		}
	}

	salt := make([]byte, envSaltSize)
	nonce := make([]byte, envNonceSize)
	if opts.Password != "" {
		flags |= envFlagEnc
		if _, err := io.ReadFull(rand.Reader, salt); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return nil, err
		}
		gcm, err := newGCM(opts.Password, salt)
		if err != nil {
			return nil, err
		}
		payload = gcm.Seal(nil, nonce, payload, nil)
	}

	out := make([]byte, envHeaderSize)
	copy(out[:len(envelopeMagic)], envelopeMagic)
	off := len(envelopeMagic)
	binary.LittleEndian.PutUint16(out[off:off+2], envelopeVersion)
	binary.LittleEndian.PutUint16(out[off+2:off+4], flags)
	copy(out[off+4:off+4+envSaltSize], salt)
	copy(out[off+4+envSaltSize:off+4+envSaltSize+envNonceSize], nonce)
	binary.LittleEndian.PutUint64(out[off+4+envSaltSize+envNonceSize:], uint64(len(payload)))
	return append(out, payload...), nil
}

func decodeEnvelope(b []byte, password string) ([]byte, error) {
	if len(b) < envHeaderSize {
		return nil, ErrInvalidEnvelope
	}
	off := len(envelopeMagic)
	if v := binary.LittleEndian.Uint16(b[off : off+2]); v != envelopeVersion {
		return nil, fmt.Errorf("%w: envelope version %d", ErrUnsupportedVer, v)
	}
	flags := binary.LittleEndian.Uint16(b[off+2 : off+4])
	salt := b[off+4 : off+4+envSaltSize]
	nonce := b[off+4+envSaltSize : off+4+envSaltSize+envNonceSize]
	payloadLen := binary.LittleEndian.Uint64(b[off+4+envSaltSize+envNonceSize:])
	if uint64(len(b)-envHeaderSize) != payloadLen {
		return nil, ErrInvalidEnvelope
	}
	payload := append([]byte(nil), b[envHeaderSize:]...)

	if flags&envFlagEnc != 0 {
		if strings.TrimSpace(password) == "" {
			return nil, ErrPasswordRequired
		}
		gcm, err := newGCM(password, salt)
		if err != nil {
			return nil, err
		}
		payload, err = gcm.Open(nil, nonce, payload, nil)
		if err != nil {
			return nil, ErrInvalidPassword
		}
	}

	if flags&envFlagComp != 0 {
		var err error
		payload, err = decompressBytes(payload)
		if err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, kdfIterations, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func compressBytes(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(in); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressBytes(in []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
