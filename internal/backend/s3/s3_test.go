package s3_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/backend/s3"
	rtest "github.com/vandry/get-longhorn-backup/internal/test"
)

const noSuchKey = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>%s</Key><BucketName>bucket</BucketName></Error>`

// newFakeServer serves objects from a map using path-style bucket addressing.
func newFakeServer(t *testing.T, objects map[string][]byte) (*httptest.Server, *[]string) {
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		requests = append(requests, r.URL.Path)
		if r.Header.Get("Range") != "" {
			t.Errorf("unexpected range request for %v", r.URL.Path)
		}

		key := strings.TrimPrefix(r.URL.Path, "/bucket/")
		data, ok := objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(strings.Replace(noSuchKey, "%s", key, 1)))
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2023 15:04:05 GMT")
		w.Header().Set("ETag", `"00000000000000000000000000000000"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func openTestBackend(t *testing.T, srv *httptest.Server) *s3.Backend {
	cfg, err := s3.ParseConfig(srv.URL, "us-east-1", "bucket")
	rtest.OK(t, err)
	cfg.KeyID = "testkey"
	cfg.Secret = "testsecret"
	cfg.BucketLookup = "path"
	cfg.MaxRetries = 1

	rt, err := backend.Transport(backend.TransportOptions{})
	rtest.OK(t, err)

	be, err := s3.Open(context.TODO(), *cfg, rt)
	rtest.OK(t, err)
	return be
}

func TestOpenMaxRetriesIsProcessWide(t *testing.T) {
	saved := minio.MaxRetry
	defer func() {
		minio.MaxRetry = saved
	}()

	rt, err := backend.Transport(backend.TransportOptions{})
	rtest.OK(t, err)

	for _, test := range []struct {
		retries uint
		want    int
	}{
		{3, 3},
		{7, 7},
		// zero keeps the value set by the backend opened before
		{0, 7},
	} {
		cfg, err := s3.ParseConfig("https://s3.example.com", "us-east-1", "bucket")
		rtest.OK(t, err)
		cfg.KeyID = "testkey"
		cfg.Secret = "testsecret"
		cfg.MaxRetries = test.retries

		_, err = s3.Open(context.TODO(), *cfg, rt)
		rtest.OK(t, err)
		rtest.Equals(t, test.want, minio.MaxRetry)
	}
}

func TestS3Load(t *testing.T) {
	data := rtest.Random(5, 4096)
	srv, requests := newFakeServer(t, map[string][]byte{
		"backups/host1/blocks/ab/cd/abcd1234.blk": data,
	})
	be := openTestBackend(t, srv)

	buf, err := backend.LoadAll(context.TODO(), nil, be, "backups/host1/blocks/ab/cd/abcd1234.blk")
	rtest.OK(t, err)
	rtest.Equals(t, data, buf)
	rtest.Equals(t, []string{"/bucket/backups/host1/blocks/ab/cd/abcd1234.blk"}, *requests)
}

func TestS3LoadNotExist(t *testing.T) {
	srv, _ := newFakeServer(t, map[string][]byte{})
	be := openTestBackend(t, srv)

	_, err := backend.LoadAll(context.TODO(), nil, be, "backups/host1/index.json")
	rtest.Assert(t, err != nil, "expected error for missing object")
	rtest.Assert(t, be.IsNotExist(err), "expected not exist error, got %v", err)
	rtest.Assert(t, be.IsPermanentError(err), "not exist must be permanent, got %v", err)
}

func TestS3BadBucketLookup(t *testing.T) {
	cfg, err := s3.ParseConfig("https://s3.example.com", "us-east-1", "bucket")
	rtest.OK(t, err)
	cfg.KeyID, cfg.Secret = "k", "s"
	cfg.BucketLookup = "virtual"

	_, err = s3.Open(context.TODO(), *cfg, http.DefaultTransport)
	rtest.Assert(t, err != nil, "expected error for unknown bucket lookup style")
}
