package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/vandry/get-longhorn-backup/internal/backend"
	"github.com/vandry/get-longhorn-backup/internal/backend/limiter"
	"github.com/vandry/get-longhorn-backup/internal/backend/local"
	"github.com/vandry/get-longhorn-backup/internal/backend/retry"
	"github.com/vandry/get-longhorn-backup/internal/backend/s3"
	"github.com/vandry/get-longhorn-backup/internal/debug"
	"github.com/vandry/get-longhorn-backup/internal/errors"
)

var version = "0.3.0-dev (compiled manually)"

type backendWrapper func(r backend.Backend) (backend.Backend, error)

// GlobalOptions hold the options for connecting to the object store and
// for the output of the program.
type GlobalOptions struct {
	Quiet   bool
	Verbose int
	JSON    bool

	BucketLookup string
	MaxRetries   uint
	RetryTimeout time.Duration

	backend.TransportOptions
	limiter.Limits

	// static S3 credentials, only read from the environment
	keyID, secret string

	stdout io.Writer
	stderr io.Writer

	backendTestHook backendWrapper

	// verbosity is set as follows:
	//  0 means: don't print any messages except errors, this is used when --quiet is specified
	//  1 is the default: print essential messages
	//  2 means: print more messages, report every gap, this is used when --verbose is specified
	verbosity uint
}

func (opts *GlobalOptions) AddFlags(f *pflag.FlagSet) {
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "do not output comprehensive progress report")
	f.CountVarP(&opts.Verbose, "verbose", "v", "be verbose (specify multiple times or a level using --verbose=n``)")
	f.BoolVarP(&opts.JSON, "json", "", false, "set output mode to JSON")
	f.StringSliceVar(&opts.RootCertFilenames, "cacert", nil, "`file` to load root certificates from (default: use system certificates or $LONGHORN_BACKUP_CACERT)")
	f.BoolVar(&opts.InsecureTLS, "insecure-tls", false, "skip TLS certificate verification when connecting to the object store (insecure)")
	f.StringVar(&opts.HTTPUserAgent, "http-user-agent", "", "set a http user agent for outgoing http requests")
	f.StringVar(&opts.BucketLookup, "bucket-lookup", "auto", "bucket lookup style, one of (auto|dns|path) (default: $LONGHORN_BACKUP_BUCKET_LOOKUP or auto)")
	f.UintVar(&opts.MaxRetries, "max-retries", 0, "number of retries of the S3 client for a single request (default: client default)")
	f.DurationVar(&opts.RetryTimeout, "retry-timeout", 0, "retry failed fetches with a backoff for up to `duration`, like 5m (default: no retries)")
	f.DurationVar(&opts.StallTimeout, "stuck-request-timeout", 5*time.Minute, "`duration` after which a download that makes no progress is canceled (0 disables the check)")
	f.IntVar(&opts.Limits.DownloadKb, "limit-download", 0, "limits downloads to a maximum `rate` in KiB/s. (default: unlimited)")

	if os.Getenv("LONGHORN_BACKUP_CACERT") != "" {
		opts.RootCertFilenames = strings.Split(os.Getenv("LONGHORN_BACKUP_CACERT"), ",")
	}
	if os.Getenv("LONGHORN_BACKUP_BUCKET_LOOKUP") != "" {
		opts.BucketLookup = os.Getenv("LONGHORN_BACKUP_BUCKET_LOOKUP")
	}
	if os.Getenv("LONGHORN_BACKUP_HTTP_USER_AGENT") != "" {
		opts.HTTPUserAgent = os.Getenv("LONGHORN_BACKUP_HTTP_USER_AGENT")
	}
	opts.keyID = os.Getenv("LONGHORN_BACKUP_S3_KEY_ID")
	opts.secret = os.Getenv("LONGHORN_BACKUP_S3_SECRET")
}

func (opts *GlobalOptions) PreRun() error {
	// set verbosity, default is one
	opts.verbosity = 1
	if opts.Quiet && opts.Verbose > 0 {
		return errors.FatalCode(exitUsage, "--quiet and --verbose cannot be specified at the same time")
	}

	switch {
	case opts.Verbose > 0:
		opts.verbosity = 2
	case opts.Quiet:
		opts.verbosity = 0
	}

	switch opts.BucketLookup {
	case "auto", "dns", "path":
	default:
		return errors.FatalCode(exitUsage, `bad bucket-lookup style %q must be "auto", "path" or "dns"`, opts.BucketLookup)
	}

	if opts.Limits.DownloadKb < 0 {
		return errors.FatalCode(exitUsage, "--limit-download must not be negative")
	}
	if opts.StallTimeout < 0 {
		return errors.FatalCode(exitUsage, "--stuck-request-timeout must not be negative")
	}
	if opts.RetryTimeout < 0 {
		return errors.FatalCode(exitUsage, "--retry-timeout must not be negative")
	}

	return nil
}

var globalOptions = GlobalOptions{
	stdout: os.Stdout,
	stderr: os.Stderr,
}

// Warnf writes the message to the configured stderr stream.
func Warnf(format string, args ...interface{}) {
	_, err := fmt.Fprintf(globalOptions.stderr, format, args...)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "unable to write to stderr: %v\n", err)
	}
}

// OpenBackend opens the bucket at endpoint and wraps it according to the
// global options.
func OpenBackend(ctx context.Context, gopts GlobalOptions, endpoint, region, bucket string, report func(string, ...interface{})) (backend.Backend, error) {
	var be backend.Backend

	if local.IsLocation(endpoint) {
		cfg, err := local.ParseConfig(endpoint, bucket)
		if err != nil {
			return nil, errors.FatalCode(exitUsage, "%v", err)
		}
		be, err = local.Open(ctx, *cfg)
		if err != nil {
			return nil, errors.Fatalf("unable to open %v: %v", endpoint, err)
		}
	} else {
		cfg, err := s3.ParseConfig(endpoint, region, bucket)
		if err != nil {
			return nil, errors.FatalCode(exitUsage, "%v", err)
		}
		cfg.BucketLookup = gopts.BucketLookup
		cfg.MaxRetries = gopts.MaxRetries
		cfg.KeyID, cfg.Secret = gopts.keyID, gopts.secret

		rt, err := backend.Transport(gopts.TransportOptions)
		if err != nil {
			return nil, errors.Fatal(err.Error())
		}

		be, err = s3.Open(ctx, *cfg, rt)
		if err != nil {
			return nil, errors.Fatalf("unable to open bucket %v at %v: %v", bucket, endpoint, err)
		}
	}
	debug.Log("opened %v", be.Location())

	if lim := limiter.NewStaticLimiter(gopts.Limits); lim != nil {
		be = limiter.LimitBackend(be, lim)
	}

	if gopts.RetryTimeout > 0 {
		be = retry.New(be, gopts.RetryTimeout,
			func(msg string, err error, d time.Duration) {
				if d >= 0 {
					report("%v returned error, retrying after %v: %v", msg, d, err)
				} else {
					report("%v failed: %v", msg, err)
				}
			},
			func(msg string, retries int) {
				report("%v operation successful after %d retries", msg, retries)
			})
	}

	// wrap backend if a test specified a hook
	if gopts.backendTestHook != nil {
		var err error
		be, err = gopts.backendTestHook(be)
		if err != nil {
			return nil, err
		}
	}

	return be, nil
}
