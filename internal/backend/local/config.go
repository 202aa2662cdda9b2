package local

import (
	"path/filepath"
	"strings"

	"github.com/vandry/get-longhorn-backup/internal/errors"
)

// Config holds all information needed to read backups from a local directory
// which mirrors a bucket.
type Config struct {
	Path   string
	Bucket string
}

// IsLocation reports whether endpoint refers to a local directory.
func IsLocation(endpoint string) bool {
	return strings.HasPrefix(endpoint, "file://")
}

// ParseConfig parses a local endpoint of the form file:///path/to/dir. The
// bucket becomes a subdirectory of the path.
func ParseConfig(endpoint, bucket string) (*Config, error) {
	if !IsLocation(endpoint) {
		return nil, errors.New(`invalid format, prefix "file://" not found`)
	}

	dir := strings.TrimPrefix(endpoint, "file://")
	if dir == "" {
		return nil, errors.New("local: directory not specified")
	}
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return nil, errors.Errorf("local: invalid bucket name %q", bucket)
	}

	return &Config{
		Path:   filepath.Clean(dir),
		Bucket: bucket,
	}, nil
}
