package s3

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/debug"
	"github.com/vandry/get-longhorn-backup/internal/errors"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Backend reads objects from an S3 endpoint.
type Backend struct {
	client *minio.Client
	cfg    Config
}

// make sure that *Backend implements backend.Backend
var _ backend.Backend = &Backend{}

// Open connects to the S3 server. No request is sent until the first Load.
func Open(_ context.Context, cfg Config, rt http.RoundTripper) (*Backend, error) {
	debug.Log("open, endpoint %v, region %v, bucket %v", cfg.Endpoint, cfg.Region, cfg.Bucket)

	// process-wide, see Config.MaxRetries
	if cfg.MaxRetries > 0 {
		minio.MaxRetry = int(cfg.MaxRetries)
	}

	// Chains all credential types, in the following order:
	// 	- AWS env vars (i.e. AWS_ACCESS_KEY_ID)
	// 	- Static credentials provided by user
	//	- Minio env vars (i.e. MINIO_ACCESS_KEY)
	//	- AWS creds file (i.e. AWS_SHARED_CREDENTIALS_FILE or ~/.aws/credentials)
	//	- Minio creds file (i.e. MINIO_SHARED_CREDENTIALS_FILE or ~/.mc/config.json)
	//	- IAM profile based credentials. (performs an HTTP
	//	  call to a pre-defined endpoint, only valid inside
	//	  configured ec2 instances)
	creds := credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.Static{
			Value: credentials.Value{
				AccessKeyID:     cfg.KeyID,
				SecretAccessKey: cfg.Secret,
			},
		},
		&credentials.EnvMinio{},
		&credentials.FileAWSCredentials{},
		&credentials.FileMinioClient{},
		&credentials.IAM{
			Client: &http.Client{
				Transport: http.DefaultTransport,
			},
		},
	})

	c, err := creds.Get()
	if err != nil {
		return nil, errors.Wrap(err, "creds.Get")
	}

	if c.SignerType == credentials.SignatureAnonymous {
		debug.Log("using anonymous access for %#v", cfg.Endpoint)
	}

	options := &minio.Options{
		Creds:     creds,
		Secure:    !cfg.UseHTTP,
		Region:    cfg.Region,
		Transport: rt,
	}

	switch strings.ToLower(cfg.BucketLookup) {
	case "", "auto":
		options.BucketLookup = minio.BucketLookupAuto
	case "dns":
		options.BucketLookup = minio.BucketLookupDNS
	case "path":
		options.BucketLookup = minio.BucketLookupPath
	default:
		return nil, errors.Fatalf(`bad bucket-lookup style %q must be "auto", "path" or "dns"`, cfg.BucketLookup)
	}

	client, err := minio.New(cfg.Endpoint, options)
	if err != nil {
		return nil, errors.Wrap(err, "minio.New")
	}

	return &Backend{
		client: client,
		cfg:    cfg,
	}, nil
}

// permanentCodes are S3 error codes which retrying cannot fix.
var permanentCodes = map[string]bool{
	"NoSuchKey":             true,
	"NoSuchBucket":          true,
	"AccessDenied":          true,
	"InvalidAccessKeyId":    true,
	"SignatureDoesNotMatch": true,
	"InvalidBucketName":     true,
}

// IsNotExist returns true if the error is caused by a not existing file.
func (be *Backend) IsNotExist(err error) bool {
	var e minio.ErrorResponse
	return errors.As(err, &e) && e.Code == "NoSuchKey"
}

func (be *Backend) IsPermanentError(err error) bool {
	if be.IsNotExist(err) {
		return true
	}

	var merr minio.ErrorResponse
	if errors.As(err, &merr) {
		if permanentCodes[merr.Code] {
			return true
		}
		if merr.StatusCode == http.StatusNotFound || merr.StatusCode == http.StatusForbidden {
			return true
		}
	}
	return false
}

// Location returns this backend's location (endpoint and bucket name).
func (be *Backend) Location() string {
	return path.Join(be.cfg.Endpoint, be.cfg.Bucket)
}

// Load runs fn with a reader that yields the contents of the object name.
func (be *Backend) Load(ctx context.Context, name string, fn func(rd io.Reader) error) error {
	return backend.DefaultLoad(ctx, name, be.openReader, fn)
}

func (be *Backend) openReader(ctx context.Context, name string) (io.ReadCloser, error) {
	debug.Log("Load %v from bucket %v", name, be.cfg.Bucket)

	ctx, cancel := context.WithCancel(ctx)

	coreClient := minio.Core{Client: be.client}
	rd, info, _, err := coreClient.GetObject(ctx, be.cfg.Bucket, name, minio.GetObjectOptions{})
	if err != nil {
		cancel()
		return nil, err
	}

	debug.Log("GetObject(%v) -> %d bytes", name, info.Size)
	return &cancelCloser{ReadCloser: rd, cancel: cancel}, nil
}

// cancelCloser releases the request context once the body is closed.
type cancelCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (rd *cancelCloser) Close() error {
	err := rd.ReadCloser.Close()
	rd.cancel()
	return err
}

// Close does nothing
func (be *Backend) Close() error { return nil }
