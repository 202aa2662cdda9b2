package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime"
	godebug "runtime/debug"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/vandry/get-longhorn-backup/internal/debug"
	"github.com/vandry/get-longhorn-backup/internal/errors"
	"github.com/vandry/get-longhorn-backup/internal/restorer"
)

func init() {
	// don't import `go.uber.org/automaxprocs` to disable the log output
	_, _ = maxprocs.Set()
}

// Exit codes of the program.
const (
	exitOK          = 0
	exitFailure     = 1
	exitBadBackup   = 2
	exitUsage       = 3
	exitGap         = 4
	exitInterrupted = 130
)

func newRootCommand(gopts *GlobalOptions) *cobra.Command {
	var opts RestoreOptions

	cmd := &cobra.Command{
		Use:   "get-longhorn-backup [flags] endpoint region bucket backup-cfg-name dst",
		Short: "Restore a Longhorn volume backup from an object store into a file",
		Long: `
get-longhorn-backup restores a single Longhorn volume backup from an S3
compatible object store (or a local mirror of a bucket) into a file.

The endpoint is either an S3 endpoint (https://host:port, http://host:port or
a bare host name, which implies https) or file:///path for a directory which
holds the bucket as a subdirectory. The backup-cfg-name is the name of the
backup configuration object inside the bucket, for example
backupstore/volumes/5e/b8/pvc-1/backups/backup_backup-1.cfg.

Credentials for S3 are read from the environment ($AWS_ACCESS_KEY_ID,
$AWS_SECRET_ACCESS_KEY, $LONGHORN_BACKUP_S3_KEY_ID, ...), the AWS and MinIO
credential files, or the instance metadata service.

EXIT STATUS
===========

Exit status is 0 if the backup was restored.
Exit status is 1 if fetching, decompressing or writing data failed.
Exit status is 2 if the backup configuration is invalid or unsupported.
Exit status is 3 if the command line is invalid.
Exit status is 4 if the backup has a gap and --gaps=error was given.
Exit status is 130 if the restore was interrupted.
`,
		Version:           version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		Args:              checkArgs,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return gopts.PreRun()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(cmd.Context(), opts, *gopts, args)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.FatalCode(exitUsage, "%v", err)
	})
	cmd.CompletionOptions.DisableDefaultCmd = true

	gopts.AddFlags(cmd.PersistentFlags())
	opts.AddFlags(cmd.Flags())

	registerProfiling(cmd, gopts)

	return cmd
}

func checkArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 5 {
		return errors.FatalCode(exitUsage, "expected 5 arguments, got %d\nUsage: %s", len(args), cmd.UseLine())
	}
	return nil
}

func tweakGoGC() {
	// lower GOGC from 100 to 50, unless it was manually overwritten by the user
	oldValue := godebug.SetGCPercent(50)
	if oldValue != 100 {
		godebug.SetGCPercent(oldValue)
	}
}

// exitCode returns the process exit status for the result of a run.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if code, ok := errors.ExitCode(err); ok {
		return code
	}

	switch restorer.KindOf(err) {
	case restorer.KindCanceled:
		return exitInterrupted
	case restorer.KindManifest, restorer.KindPath:
		return exitBadBackup
	case restorer.KindSkippedData:
		return exitGap
	default:
		return exitFailure
	}
}

func exitMessage(err error, logBuffer *bytes.Buffer) string {
	switch {
	case errors.IsFatal(err):
		return err.Error()
	case restorer.KindOf(err) != restorer.KindOther:
		return fmt.Sprintf("Fatal: %v", err)
	}

	msg := fmt.Sprintf("%+v", err)
	if logBuffer.Len() > 0 {
		msg += "\nalso, the following messages were logged by a library:\n"
		sc := bufio.NewScanner(logBuffer)
		for sc.Scan() {
			msg += fmt.Sprintln(sc.Text())
		}
	}
	return msg
}

func printExitError(gopts GlobalOptions, code int, message string) {
	if gopts.JSON {
		type jsonExitError struct {
			MessageType string `json:"message_type"` // exit_error
			Code        int    `json:"code"`
			Message     string `json:"message"`
		}

		jsonS := jsonExitError{
			MessageType: "exit_error",
			Code:        code,
			Message:     message,
		}

		err := json.NewEncoder(gopts.stderr).Encode(jsonS)
		if err != nil {
			Warnf("JSON encode failed: %v\n", err)
			return
		}
	} else {
		_, _ = fmt.Fprintf(gopts.stderr, "%v\n", message)
	}
}

func main() {
	tweakGoGC()
	// install custom global logger into a buffer, if an error occurs
	// we can show the logs
	logBuffer := bytes.NewBuffer(nil)
	log.SetOutput(logBuffer)

	debug.Log("main %#v", os.Args)
	debug.Log("get-longhorn-backup %s compiled with %v on %v/%v",
		version, runtime.Version(), runtime.GOOS, runtime.GOARCH)

	ctx := createGlobalContext()
	err := newRootCommand(&globalOptions).ExecuteContext(ctx)
	if err == nil {
		err = ctx.Err()
	}

	code := exitCode(err)
	if code != exitOK {
		printExitError(globalOptions, code, exitMessage(err, logBuffer))
	}
	Exit(code)
}
