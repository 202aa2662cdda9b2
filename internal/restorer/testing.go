package restorer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/vandry/get-longhorn-backup/internal/backup"
	"github.com/vandry/get-longhorn-backup/internal/codec"
)

// TestBlock is a block stored by TestSaveBackup.
type TestBlock struct {
	Offset uint64
	Data   []byte
}

// TestContiguous returns blocks for payloads placed one after the other.
func TestContiguous(payloads ...[]byte) []TestBlock {
	blocks := make([]TestBlock, 0, len(payloads))
	var offset uint64
	for _, p := range payloads {
		blocks = append(blocks, TestBlock{Offset: offset, Data: p})
		offset += uint64(len(p))
	}
	return blocks
}

// TestSaver stores objects for tests.
type TestSaver interface {
	Save(ctx context.Context, name string, data []byte) error
}

// TestSaveBackup stores the compressed blocks and a manifest listing them
// under manifestName in be. It returns the names of the block objects in
// manifest order.
func TestSaveBackup(t testing.TB, be TestSaver, manifestName string, blocks []TestBlock) []string {
	t.Helper()

	root, err := backup.Root(manifestName)
	if err != nil {
		t.Fatal(err)
	}

	type jsonBlock struct {
		Offset        uint64
		BlockChecksum string
	}
	manifest := struct {
		Name              string
		CompressionMethod string
		Blocks            []jsonBlock
	}{
		Name:              "test",
		CompressionMethod: codec.LZ4,
	}

	names := make([]string, 0, len(blocks))
	for _, b := range blocks {
		stored := codec.TestCompressLZ4(t, b.Data)
		sum := sha256.Sum256(stored)
		checksum := hex.EncodeToString(sum[:])

		name := backup.BlockName(root, checksum)
		if err := be.Save(context.TODO(), name, stored); err != nil {
			t.Fatal(err)
		}

		names = append(names, name)
		manifest.Blocks = append(manifest.Blocks, jsonBlock{Offset: b.Offset, BlockChecksum: checksum})
	}

	buf, err := json.Marshal(manifest)
	if err != nil {
		t.Fatal(err)
	}
	if err := be.Save(context.TODO(), manifestName, buf); err != nil {
		t.Fatal(err)
	}

	return names
}
