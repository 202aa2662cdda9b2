package restorer

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/backend/mem"
	"github.com/vandry/get-longhorn-backup/internal/backend/mock"
	"github.com/vandry/get-longhorn-backup/internal/backup"
	"github.com/vandry/get-longhorn-backup/internal/errors"
	rtest "github.com/vandry/get-longhorn-backup/internal/test"
)

func restoreTestBackup(t testing.TB, be backend.Backend, opts Options) (string, Summary, error) {
	t.Helper()

	dst := filepath.Join(rtest.TempDir(t), "volume.img")
	summary, err := NewRestorer(be, opts).Restore(context.TODO(), testManifestName, dst)
	return dst, summary, err
}

func TestRestoreRoundTrip(t *testing.T) {
	payloads := [][]byte{
		rtest.Random(1, 2<<20),
		rtest.Random(2, 2<<20),
		rtest.Random(3, 12345),
	}

	be := mem.New()
	TestSaveBackup(t, be, testManifestName, TestContiguous(payloads...))

	dst, summary, err := restoreTestBackup(t, be, Options{})
	rtest.OK(t, err)

	rtest.Equals(t, bytes.Join(payloads, nil), rtest.ReadFile(t, dst))
	rtest.Equals(t, 3, summary.Blocks)
	rtest.Equals(t, uint64(4<<20+12345), summary.BytesRestored)
	rtest.Equals(t, uint64(4<<20+12345), summary.BytesWritten)
	rtest.Equals(t, uint64(4<<20+12345), summary.Extent)
	rtest.Equals(t, 0, summary.Gaps)
}

func TestRestoreTruncatesDestination(t *testing.T) {
	be := mem.New()
	TestSaveBackup(t, be, testManifestName, TestContiguous([]byte("new content")))

	dst := filepath.Join(rtest.TempDir(t), "volume.img")
	rtest.OK(t, os.WriteFile(dst, bytes.Repeat([]byte("x"), 1000), 0600))

	_, err := NewRestorer(be, Options{}).Restore(context.TODO(), testManifestName, dst)
	rtest.OK(t, err)
	rtest.Equals(t, []byte("new content"), rtest.ReadFile(t, dst))
}

func TestRestoreUnsupportedCodec(t *testing.T) {
	be := mem.New()
	rtest.OK(t, be.Save(context.TODO(), testManifestName,
		[]byte(`{"CompressionMethod":"gzip","Blocks":[{"Offset":0,"BlockChecksum":"abcd1234"}]}`)))

	dst, _, err := restoreTestBackup(t, be, Options{})

	var merr *backup.ManifestError
	rtest.Assert(t, errors.As(err, &merr), "expected ManifestError, got %v", err)
	rtest.Equals(t, KindManifest, KindOf(err))

	// only the manifest was fetched and the destination was not touched
	rtest.Equals(t, []string{testManifestName}, be.Loads())
	_, err = os.Stat(dst)
	rtest.Assert(t, errors.Is(err, os.ErrNotExist), "destination should not exist, got %v", err)
}

func TestRestorePathError(t *testing.T) {
	be := mem.New()

	dst := filepath.Join(rtest.TempDir(t), "volume.img")
	_, err := NewRestorer(be, Options{}).Restore(context.TODO(), "host1/index.json", dst)

	rtest.Equals(t, KindPath, KindOf(err))
	rtest.Equals(t, 0, len(be.Loads()))
}

func TestRestoreMissingManifest(t *testing.T) {
	be := mem.New()

	_, _, err := restoreTestBackup(t, be, Options{})

	var rerr *RemoteError
	rtest.Assert(t, errors.As(err, &rerr), "expected RemoteError, got %v", err)
	rtest.Equals(t, -1, rerr.Block)
	rtest.Equals(t, testManifestName, rerr.Name)
	rtest.Assert(t, be.IsNotExist(err), "expected not-exist error, got %v", err)
}

func TestRestoreFetchFailure(t *testing.T) {
	payloads := [][]byte{rtest.Random(1, 100), rtest.Random(2, 100), rtest.Random(3, 100)}

	store := mem.New()
	names := TestSaveBackup(t, store, testManifestName, TestContiguous(payloads...))

	var fetched []string
	be := mock.NewBackend()
	be.OpenReaderFn = func(ctx context.Context, name string) (io.ReadCloser, error) {
		fetched = append(fetched, name)
		if name == names[1] {
			return nil, errors.New("connection reset by peer")
		}
		buf, err := backend.LoadAll(ctx, nil, store, name)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(buf)), nil
	}

	dst, summary, err := restoreTestBackup(t, be, Options{})

	var rerr *RemoteError
	rtest.Assert(t, errors.As(err, &rerr), "expected RemoteError, got %v", err)
	rtest.Equals(t, 1, rerr.Block)
	rtest.Equals(t, names[1], rerr.Name)
	rtest.Equals(t, KindRemote, KindOf(err))

	// the first block is on disk, the third was never requested
	rtest.Equals(t, payloads[0], rtest.ReadFile(t, dst))
	rtest.Equals(t, []string{testManifestName, names[0], names[1]}, fetched)
	rtest.Equals(t, 1, summary.Blocks)
}

func TestRestoreGapPolicies(t *testing.T) {
	blocks := gapTestBlocks()

	be := mem.New()
	TestSaveBackup(t, be, testManifestName, blocks)

	t.Run("error", func(t *testing.T) {
		dst, summary, err := restoreTestBackup(t, be, Options{Gaps: GapError})

		var gap *SkippedData
		rtest.Assert(t, errors.As(err, &gap), "expected SkippedData, got %v", err)
		rtest.Equals(t, uint64(200), gap.Expected)
		rtest.Equals(t, uint64(250), gap.Found)
		rtest.Equals(t, 1, summary.Gaps)

		rtest.Equals(t, append(bytes.Clone(blocks[0].Data), blocks[1].Data...), rtest.ReadFile(t, dst))
	})

	t.Run("warn", func(t *testing.T) {
		var warnings []error
		dst, summary, err := restoreTestBackup(t, be, Options{
			Gaps: GapWarn,
			Warn: func(err error) { warnings = append(warnings, err) },
		})
		rtest.OK(t, err)
		rtest.Equals(t, 1, len(warnings))
		rtest.Equals(t, KindSkippedData, KindOf(warnings[0]))
		rtest.Equals(t, 1, summary.Gaps)
		rtest.Equals(t, uint64(450), summary.Extent)

		want := make([]byte, 450)
		for _, b := range blocks {
			copy(want[b.Offset:], b.Data)
		}
		rtest.Equals(t, want, rtest.ReadFile(t, dst))
	})

	t.Run("ignore", func(t *testing.T) {
		_, summary, err := restoreTestBackup(t, be, Options{
			Gaps: GapIgnore,
			Warn: func(err error) { t.Errorf("unexpected warning %v", err) },
		})
		rtest.OK(t, err)
		rtest.Equals(t, 1, summary.Gaps)
	})
}

func TestRestoreSparse(t *testing.T) {
	zeros := make([]byte, 64*1024)
	data := append(make([]byte, 5000), rtest.Random(1, 3000)...)
	data[5000] = 0xff
	tail := rtest.Random(2, 100)
	tail[0] = 0xff
	blocks := TestContiguous(data, zeros, tail, zeros)

	be := mem.New()
	TestSaveBackup(t, be, testManifestName, blocks)

	dst, summary, err := restoreTestBackup(t, be, Options{Sparse: true, Verify: true})
	rtest.OK(t, err)

	want := bytes.Join([][]byte{data, zeros, tail, zeros}, nil)
	rtest.Equals(t, want, rtest.ReadFile(t, dst))
	rtest.Equals(t, uint64(3100), summary.BytesWritten)
	rtest.Equals(t, uint64(len(want)), summary.Extent)
	rtest.Equals(t, uint64(len(want)), summary.BytesVerified)
}

func TestRestoreSparseOverlap(t *testing.T) {
	var tests = []struct {
		name    string
		blocks  []TestBlock
		written uint64
	}{
		{
			name: "zeros-inside",
			blocks: []TestBlock{
				{Offset: 0, Data: bytes.Repeat([]byte{0xaa}, 100)},
				{Offset: 50, Data: make([]byte, 50)},
			},
			written: 150,
		},
		{
			name: "zeros-past-extent",
			blocks: []TestBlock{
				{Offset: 0, Data: bytes.Repeat([]byte{0xaa}, 100)},
				{Offset: 50, Data: make([]byte, 100)},
			},
			written: 200,
		},
		{
			name: "data-after-zeros",
			blocks: []TestBlock{
				{Offset: 0, Data: bytes.Repeat([]byte{0xaa}, 100)},
				{Offset: 20, Data: append(make([]byte, 40), 0xbb)},
			},
			written: 141,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			be := mem.New()
			TestSaveBackup(t, be, testManifestName, test.blocks)

			var want []byte
			for _, b := range test.blocks {
				if end := int(b.Offset) + len(b.Data); end > len(want) {
					want = append(want, make([]byte, end-len(want))...)
				}
				copy(want[b.Offset:], b.Data)
			}

			for _, verify := range []bool{false, true} {
				dst, summary, err := restoreTestBackup(t, be, Options{Gaps: GapIgnore, Sparse: true, Verify: verify})
				rtest.OK(t, err)
				rtest.Equals(t, want, rtest.ReadFile(t, dst))
				rtest.Equals(t, test.written, summary.BytesWritten)
				rtest.Equals(t, uint64(len(want)), summary.Extent)
			}
		})
	}
}

func TestRestoreVerify(t *testing.T) {
	payloads := [][]byte{rtest.Random(1, 1000), rtest.Random(2, 1000)}

	be := mem.New()
	TestSaveBackup(t, be, testManifestName, TestContiguous(payloads...))

	_, summary, err := restoreTestBackup(t, be, Options{Verify: true})
	rtest.OK(t, err)
	rtest.Equals(t, uint64(2000), summary.BytesVerified)
}

func TestRestoreDryRun(t *testing.T) {
	payloads := [][]byte{rtest.Random(1, 1000), rtest.Random(2, 1000)}

	be := mem.New()
	names := TestSaveBackup(t, be, testManifestName, TestContiguous(payloads...))

	dst, summary, err := restoreTestBackup(t, be, Options{DryRun: true, Verify: true})
	rtest.OK(t, err)
	rtest.Equals(t, 2, summary.Blocks)
	rtest.Equals(t, uint64(2000), summary.BytesRestored)
	rtest.Equals(t, uint64(0), summary.BytesWritten)
	rtest.Equals(t, append([]string{testManifestName}, names...), be.Loads())

	_, err = os.Stat(dst)
	rtest.Assert(t, errors.Is(err, os.ErrNotExist), "destination should not exist, got %v", err)
}

func TestRestoreCache(t *testing.T) {
	same := rtest.Random(1, 4096)
	payloads := [][]byte{same, same, rtest.Random(2, 10), same}

	be := mem.New()
	names := TestSaveBackup(t, be, testManifestName, TestContiguous(payloads...))

	dst, summary, err := restoreTestBackup(t, be, Options{CacheSize: 1 << 20})
	rtest.OK(t, err)
	rtest.Equals(t, bytes.Join(payloads, nil), rtest.ReadFile(t, dst))
	rtest.Equals(t, 2, summary.CachedBlocks)
	rtest.Equals(t, []string{testManifestName, names[0], names[2]}, be.Loads())
}

func TestRestoreDestinationError(t *testing.T) {
	be := mem.New()
	TestSaveBackup(t, be, testManifestName, TestContiguous(rtest.Random(1, 10)))

	dst := filepath.Join(rtest.TempDir(t), "missing", "volume.img")
	_, err := NewRestorer(be, Options{}).Restore(context.TODO(), testManifestName, dst)

	var ierr *IOError
	rtest.Assert(t, errors.As(err, &ierr), "expected IOError, got %v", err)
	rtest.Equals(t, -1, ierr.Block)
	rtest.Equals(t, KindIO, KindOf(err))
}
