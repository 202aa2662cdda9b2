package local_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/backend/local"
	"github.com/vandry/get-longhorn-backup/internal/backend/test"
	rtest "github.com/vandry/get-longhorn-backup/internal/test"
)

func TestParseConfig(t *testing.T) {
	var tests = []struct {
		endpoint, bucket string
		cfg              *local.Config
	}{
		{"file:///srv/backups", "store", &local.Config{Path: "/srv/backups", Bucket: "store"}},
		{"file:///srv/backups/", "store", &local.Config{Path: "/srv/backups", Bucket: "store"}},
		{"file://rel/dir", "b", &local.Config{Path: "rel/dir", Bucket: "b"}},
		{"file://", "b", nil},
		{"/srv/backups", "b", nil},
		{"file:///srv", "", nil},
		{"file:///srv", "..", nil},
		{"file:///srv", "a/b", nil},
	}

	for _, test := range tests {
		cfg, err := local.ParseConfig(test.endpoint, test.bucket)
		if test.cfg == nil {
			rtest.Assert(t, err != nil, "expected error for %q %q", test.endpoint, test.bucket)
			continue
		}
		rtest.OK(t, err)
		rtest.Equals(t, test.cfg, cfg)
	}
}

func writeObject(t *testing.T, root, name string, data []byte) {
	filename := filepath.Join(root, filepath.FromSlash(name))
	rtest.OK(t, os.MkdirAll(filepath.Dir(filename), 0700))
	rtest.OK(t, os.WriteFile(filename, data, 0600))
}

func TestLocalLoad(t *testing.T) {
	dir := rtest.TempDir(t)
	rtest.OK(t, os.Mkdir(filepath.Join(dir, "bucket"), 0700))
	writeObject(t, filepath.Join(dir, "bucket"), "backups/host1/blocks/ab/cd/abcd1234.blk", []byte("block data"))

	be, err := local.Open(context.TODO(), local.Config{Path: dir, Bucket: "bucket"})
	rtest.OK(t, err)
	defer func() { rtest.OK(t, be.Close()) }()

	buf, err := backend.LoadAll(context.TODO(), nil, be, "backups/host1/blocks/ab/cd/abcd1234.blk")
	rtest.OK(t, err)
	rtest.Equals(t, []byte("block data"), buf)

	_, err = backend.LoadAll(context.TODO(), nil, be, "backups/host1/blocks/ff/ff/ffff.blk")
	rtest.Assert(t, be.IsNotExist(err), "expected not exist error, got %v", err)
	rtest.Assert(t, be.IsPermanentError(err), "not exist must be a permanent error")

	_, err = backend.LoadAll(context.TODO(), nil, be, "../outside")
	rtest.Assert(t, err != nil, "expected error for name escaping the bucket")

	_, err = backend.LoadAll(context.TODO(), nil, be, "backups/host1")
	rtest.Assert(t, err != nil, "expected error when loading a directory")
}

func TestLocalOpenMissingBucket(t *testing.T) {
	_, err := local.Open(context.TODO(), local.Config{Path: rtest.TempDir(t), Bucket: "missing"})
	rtest.Assert(t, err != nil, "expected error for missing bucket directory")
}

func newTestSuite(t testing.TB) *test.Suite[local.Config] {
	return &test.Suite[local.Config]{
		NewConfig: func() (local.Config, error) {
			dir := rtest.TempDir(t)
			t.Logf("create new backend at %v", dir)
			cfg := local.Config{Path: dir, Bucket: "bucket"}
			return cfg, os.Mkdir(filepath.Join(dir, cfg.Bucket), 0700)
		},
		Save: func(cfg local.Config, name string, data []byte) error {
			filename := filepath.Join(cfg.Path, cfg.Bucket, filepath.FromSlash(name))
			if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
				return err
			}
			return os.WriteFile(filename, data, 0600)
		},
		Open: func(cfg local.Config) (backend.Backend, error) {
			return local.Open(context.TODO(), cfg)
		},
	}
}

func TestSuiteBackendLocal(t *testing.T) {
	newTestSuite(t).RunTests(t)
}

func BenchmarkSuiteBackendLocal(b *testing.B) {
	newTestSuite(b).RunBenchmarks(b)
}
