package checkpoint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ember-ml/ember/internal/tensor"
)

// Format constants for .ember checkpoint files.
const (
	MagicBytes    = "EMBR"
	FormatVersion = 1
	maxHeaderSize = 1 << 20 // JSON headers beyond 1 MiB indicate corruption.
)

// Common errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrChecksumMismatch   = errors.New("checksum mismatch: file may be corrupted")
	ErrTruncated          = errors.New("file is truncated")
)

// Header is the JSON header of a .ember file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	EmberVersion  string            `json:"ember_version"`
	RunID         string            `json:"run_id"`     // UUID of the training run that wrote the file
	CreatedAt     time.Time         `json:"created_at"` // When the file was created
	Items         []ItemMeta        `json:"items"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ItemMeta describes one item blob in the payload section.
type ItemMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Size   int64  `json:"size"`   // Element count
	Offset int64  `json:"offset"` // Offset in the payload section
	Bytes  int64  `json:"bytes"`  // Payload size in bytes
}

const emberVersion = "0.1.0"

// Save writes items to a .ember checkpoint file.
//
// Layout: magic, format version (uint32 LE), header length (uint32 LE),
// JSON header, payload blobs in header order, SHA-256 checksum of the
// payload section.
func Save(path string, items []Item, metadata map[string]string) error {
	header := Header{
		FormatVersion: FormatVersion,
		EmberVersion:  emberVersion,
		RunID:         uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
	}

	var offset int64
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
		header.Items = append(header.Items, ItemMeta{
			Name:   it.Name,
			DType:  it.DType.String(),
			Size:   it.Size,
			Offset: offset,
			Bytes:  int64(len(it.Data)),
		})
		offset += int64(len(it.Data))
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	//nolint:gosec // G304: the path comes from the caller, which is expected for checkpointing
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(MagicBytes); err != nil {
		return fmt.Errorf("failed to write magic bytes: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(FormatVersion)); err != nil {
		return fmt.Errorf("failed to write version: %w", err)
	}
	if err := binary.Write(file, binary.LittleEndian, uint32(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header length: %w", err)
	}
	if _, err := file.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	checksum := sha256.New()
	for _, it := range items {
		if _, err := file.Write(it.Data); err != nil {
			return fmt.Errorf("failed to write item %q: %w", it.Name, err)
		}
		checksum.Write(it.Data)
	}
	if _, err := file.Write(checksum.Sum(nil)); err != nil {
		return fmt.Errorf("failed to write checksum: %w", err)
	}

	return file.Sync()
}

// Load reads all items from a .ember checkpoint file, verifying the
// payload checksum. Validation of item shapes against live accumulator
// layouts is the consumer's job; Load only guarantees the file itself
// is intact.
func Load(path string) ([]Item, Header, error) {
	//nolint:gosec // G304: the path comes from the caller, which is expected for checkpointing
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	if len(data) < len(MagicBytes)+8 {
		return nil, Header{}, ErrTruncated
	}
	if string(data[:len(MagicBytes)]) != MagicBytes {
		return nil, Header{}, ErrInvalidMagic
	}
	pos := len(MagicBytes)

	version := binary.LittleEndian.Uint32(data[pos:])
	pos += 4
	if version != FormatVersion {
		return nil, Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	headerLen := binary.LittleEndian.Uint32(data[pos:])
	pos += 4
	if headerLen > maxHeaderSize {
		return nil, Header{}, ErrHeaderTooLarge
	}
	if pos+int(headerLen) > len(data) {
		return nil, Header{}, ErrTruncated
	}

	var header Header
	if err := json.Unmarshal(data[pos:pos+int(headerLen)], &header); err != nil {
		return nil, Header{}, fmt.Errorf("failed to parse header: %w", err)
	}
	pos += int(headerLen)

	var payloadLen int64
	for _, m := range header.Items {
		if m.Offset < 0 || m.Bytes < 0 || m.Offset+m.Bytes < payloadLen {
			return nil, Header{}, fmt.Errorf("item %q: invalid payload layout", m.Name)
		}
		payloadLen = m.Offset + m.Bytes
	}

	if int64(pos)+payloadLen+sha256.Size > int64(len(data)) {
		return nil, Header{}, ErrTruncated
	}
	payload := data[pos : int64(pos)+payloadLen]

	stored := data[int64(pos)+payloadLen : int64(pos)+payloadLen+sha256.Size]
	sum := sha256.Sum256(payload)
	if string(stored) != string(sum[:]) {
		return nil, Header{}, ErrChecksumMismatch
	}

	items := make([]Item, 0, len(header.Items))
	for _, m := range header.Items {
		dtype, err := tensor.ParseDataType(m.DType)
		if err != nil {
			return nil, Header{}, fmt.Errorf("item %q: %w", m.Name, err)
		}
		it := Item{
			Name:  m.Name,
			DType: dtype,
			Size:  m.Size,
			Data:  payload[m.Offset : m.Offset+m.Bytes],
		}
		if err := it.Validate(); err != nil {
			return nil, Header{}, err
		}
		items = append(items, it)
	}
	return items, header, nil
}

// ReadHeader reads just the header of a .ember file without loading or
// verifying the payload. Useful for inspecting checkpoints.
func ReadHeader(path string) (Header, error) {
	//nolint:gosec // G304: the path comes from the caller, which is expected for checkpointing
	file, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	prefix := make([]byte, len(MagicBytes)+8)
	if _, err := io.ReadFull(file, prefix); err != nil {
		return Header{}, ErrTruncated
	}
	if string(prefix[:len(MagicBytes)]) != MagicBytes {
		return Header{}, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint32(prefix[len(MagicBytes):]); v != FormatVersion {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	headerLen := binary.LittleEndian.Uint32(prefix[len(MagicBytes)+4:])
	if headerLen > maxHeaderSize {
		return Header{}, ErrHeaderTooLarge
	}

	headerJSON := make([]byte, headerLen)
	if _, err := io.ReadFull(file, headerJSON); err != nil {
		return Header{}, ErrTruncated
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return Header{}, fmt.Errorf("failed to parse header: %w", err)
	}
	return header, nil
}
