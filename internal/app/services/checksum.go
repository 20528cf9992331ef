package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf16"

	"github.com/yigit/examprogress/internal/app/models"
)

// Checksum hashes compact JSON with the 32-bit rolling hash h = h*31 + c over
// UTF-16 code units, rendering |h| in lower-case hex. Snapshots written by the
// earlier web version of the tracker use the same function.
func Checksum(compactJSON []byte) string {
	var h int32
	for _, c := range utf16.Encode([]rune(string(compactJSON))) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 16)
}

// encodeCompact serializes v without HTML escaping and without a trailing newline.
func encodeCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DataChecksum computes the checksum of a snapshot payload.
func DataChecksum(data models.BackupData) (string, error) {
	encoded, err := encodeCompact(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode backup data: %w", err)
	}
	return Checksum(encoded), nil
}

// RawChecksum computes the checksum over uploaded data bytes, keeping their key order.
func RawChecksum(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return Checksum(buf.Bytes()), nil
}
