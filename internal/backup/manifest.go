package backup

import (
	"encoding/json"
	"fmt"

	"github.com/vandry/get-longhorn-backup/internal/codec"
	"github.com/vandry/get-longhorn-backup/internal/errors"
)

// minChecksumLen is the shortest checksum for which a block name can be built.
const minChecksumLen = 4

// Block describes one stored block and where its decompressed bytes belong in
// the restored file.
type Block struct {
	Offset   uint64
	Checksum string
}

// Manifest is a parsed and validated backup configuration.
type Manifest struct {
	CompressionMethod string
	Blocks            []Block

	decoder codec.Decoder
}

// Decoder returns the decoder for the compression method of the manifest.
func (m *Manifest) Decoder() codec.Decoder {
	return m.decoder
}

// Size returns the number of blocks in the manifest.
func (m *Manifest) Size() int {
	return len(m.Blocks)
}

// ManifestError is returned when a manifest cannot be used, either because it
// is malformed or because it names an unsupported compression method.
type ManifestError struct {
	// Block is the index of the offending block, or -1.
	Block int
	Err   error
}

func (e *ManifestError) Error() string {
	if e.Block >= 0 {
		return fmt.Sprintf("invalid manifest: block %d: %v", e.Block, e.Err)
	}
	return fmt.Sprintf("invalid manifest: %v", e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

func manifestErrorf(block int, format string, args ...interface{}) *ManifestError {
	return &ManifestError{Block: block, Err: errors.Errorf(format, args...)}
}

// field decodes the value stored under exactly the key name in obj into v.
// Unlike struct decoding with encoding/json, a key that differs only in case
// does not match. A missing key and a null value both report false.
func field(obj map[string]json.RawMessage, name string, v interface{}) (bool, error) {
	raw, ok := obj[name]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, errors.Wrapf(err, "field %v", name)
	}
	return true, nil
}

// Parse decodes and validates a manifest. Field names are case-sensitive,
// fields other than CompressionMethod and Blocks are ignored. All problems
// are reported as *ManifestError.
func Parse(buf []byte) (*Manifest, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, &ManifestError{Block: -1, Err: errors.Wrap(err, "decode JSON")}
	}

	var method string
	ok, err := field(doc, "CompressionMethod", &method)
	if err != nil {
		return nil, &ManifestError{Block: -1, Err: err}
	}
	if !ok {
		return nil, manifestErrorf(-1, "field CompressionMethod is missing")
	}
	dec, err := codec.Lookup(method)
	if err != nil {
		return nil, &ManifestError{Block: -1, Err: err}
	}

	var blocks []map[string]json.RawMessage
	ok, err = field(doc, "Blocks", &blocks)
	if err != nil {
		return nil, &ManifestError{Block: -1, Err: err}
	}
	if !ok {
		return nil, manifestErrorf(-1, "field Blocks is missing")
	}
	if len(blocks) == 0 {
		return nil, manifestErrorf(-1, "no blocks")
	}

	m := &Manifest{
		CompressionMethod: method,
		Blocks:            make([]Block, 0, len(blocks)),
		decoder:           dec,
	}

	for i, b := range blocks {
		var blk Block
		ok, err := field(b, "Offset", &blk.Offset)
		if err != nil {
			return nil, &ManifestError{Block: i, Err: err}
		}
		if !ok {
			return nil, manifestErrorf(i, "field Offset is missing")
		}

		ok, err = field(b, "BlockChecksum", &blk.Checksum)
		if err != nil {
			return nil, &ManifestError{Block: i, Err: err}
		}
		if !ok {
			return nil, manifestErrorf(i, "field BlockChecksum is missing")
		}
		if err := checkChecksum(blk.Checksum); err != nil {
			return nil, &ManifestError{Block: i, Err: err}
		}

		m.Blocks = append(m.Blocks, blk)
	}

	return m, nil
}

func checkChecksum(s string) error {
	if len(s) < minChecksumLen {
		return errors.Errorf("checksum %q is shorter than %d characters", s, minChecksumLen)
	}
	for i := 0; i < len(s); i++ {
		if !isHex(s[i]) {
			return errors.Errorf("checksum %q contains non-hex character %q", s, s[i])
		}
	}
	return nil
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
