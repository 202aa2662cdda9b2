package s3

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var configTests = []struct {
	endpoint, region, bucket string
	cfg                      Config
}{
	{"https://s3.example.com", "us-east-1", "backups", Config{
		Endpoint:     "s3.example.com",
		Region:       "us-east-1",
		Bucket:       "backups",
		BucketLookup: "auto",
	}},
	{"http://minio.local:9000/", "eu-central-1", "longhorn", Config{
		Endpoint:     "minio.local:9000",
		UseHTTP:      true,
		Region:       "eu-central-1",
		Bucket:       "longhorn",
		BucketLookup: "auto",
	}},
	{"s3.amazonaws.com", "", "bucket", Config{
		Endpoint:     "s3.amazonaws.com",
		Bucket:       "bucket",
		BucketLookup: "auto",
	}},
	{"10.0.0.1:9000/", "r1", "b", Config{
		Endpoint:     "10.0.0.1:9000",
		Region:       "r1",
		Bucket:       "b",
		BucketLookup: "auto",
	}},
}

func TestParseConfig(t *testing.T) {
	for _, test := range configTests {
		t.Run(test.endpoint, func(t *testing.T) {
			cfg, err := ParseConfig(test.endpoint, test.region, test.bucket)
			if err != nil {
				t.Fatalf("%s failed: %v", test.endpoint, err)
			}

			if !cmp.Equal(test.cfg, *cfg) {
				t.Errorf("wrong config: %v", cmp.Diff(test.cfg, *cfg))
			}
		})
	}
}

func TestParseConfigErrors(t *testing.T) {
	for _, test := range []struct {
		endpoint, bucket string
	}{
		{"https://s3.example.com", ""},
		{"https://s3.example.com/some/path", "b"},
		{"ftp://s3.example.com", "b"},
		{"https://", "b"},
		{"", "b"},
	} {
		_, err := ParseConfig(test.endpoint, "us-east-1", test.bucket)
		if err == nil {
			t.Errorf("expected error for endpoint %q bucket %q", test.endpoint, test.bucket)
		}
	}
}
