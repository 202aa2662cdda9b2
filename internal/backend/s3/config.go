package s3

import (
	"net/url"
	"strings"

	"github.com/vandry/get-longhorn-backup/internal/errors"
)

// Config contains all configuration necessary to connect to an s3 compatible
// server.
type Config struct {
	Endpoint      string
	UseHTTP       bool
	KeyID, Secret string
	Region        string
	Bucket        string
	BucketLookup  string

	// MaxRetries, if non-zero, is stored in minio.MaxRetry when the backend
	// is opened. That variable is shared by every minio client in the
	// process, so the backend opened last sets the limit for all of them.
	MaxRetries uint
}

// NewConfig returns a new Config with the default values filled in.
func NewConfig() Config {
	return Config{
		BucketLookup: "auto",
	}
}

// ParseConfig builds the configuration for the store at endpoint. The
// endpoint is either a URL (http://host:port, https://host) or a bare host
// name, which implies https.
func ParseConfig(endpoint, region, bucket string) (*Config, error) {
	cfg := NewConfig()
	cfg.Region = region
	cfg.Bucket = bucket

	if bucket == "" {
		return nil, errors.New("s3: bucket name not found")
	}

	switch {
	case strings.HasPrefix(endpoint, "http://"), strings.HasPrefix(endpoint, "https://"):
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, errors.Wrap(err, "url.Parse")
		}
		if u.Path != "" && u.Path != "/" {
			return nil, errors.Errorf("s3: endpoint %q must not contain a path", endpoint)
		}
		cfg.Endpoint = u.Host
		cfg.UseHTTP = u.Scheme == "http"
	case strings.Contains(endpoint, "://"):
		return nil, errors.Errorf("s3: unsupported endpoint scheme in %q", endpoint)
	default:
		cfg.Endpoint = strings.TrimSuffix(endpoint, "/")
	}

	if cfg.Endpoint == "" {
		return nil, errors.New("s3: endpoint host not found")
	}

	return &cfg, nil
}
