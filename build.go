// Description
//
// This program aims to make building Go programs for end users easier by just
// calling it with `go run`, without having to setup a GOPATH.
//
// It reads the version from the file VERSION or from `git describe`, and
// builds the binary with the version embedded. Pass --tags debug for a binary
// with the profiling flags.

//go:build ignore_build_go

package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const (
	mainPackage = "./cmd/get-longhorn-backup"
	outputName  = "get-longhorn-backup"
)

var (
	verbose  bool
	runTests bool
)

// die prints the message with fmt.Fprintf() to stderr and exits with an error
// code.
func die(message string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, message, args...)
	os.Exit(1)
}

func showUsage(output io.Writer) {
	fmt.Fprintf(output, "USAGE: go run build.go OPTIONS\n")
	fmt.Fprintf(output, "\n")
	fmt.Fprintf(output, "OPTIONS:\n")
	fmt.Fprintf(output, "  -v     --verbose       output more messages\n")
	fmt.Fprintf(output, "  -t     --tags          specify additional build tags\n")
	fmt.Fprintf(output, "  -o     --output        set output file name\n")
	fmt.Fprintf(output, "         --goos value    set GOOS for cross-compilation\n")
	fmt.Fprintf(output, "         --goarch value  set GOARCH for cross-compilation\n")
	fmt.Fprintf(output, "  -T     --test          run tests\n")
}

func verbosePrintf(message string, args ...interface{}) {
	if !verbose {
		return
	}

	fmt.Printf(message, args...)
}

// run runs "go args..." with the additional environment variables env.
func run(env []string, args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	verbosePrintf("go %s\n", args)

	return cmd.Run()
}

// getVersion returns a version string, either from the file VERSION in the
// current directory or from git.
func getVersion() string {
	v, err := os.ReadFile("VERSION")
	version := strings.TrimSpace(string(v))
	if err == nil {
		verbosePrintf("version from file 'VERSION' is %q\n", version)
		return version
	}

	return gitVersion()
}

// gitVersion returns a version string that identifies the currently checked
// out git commit.
func gitVersion() string {
	cmd := exec.Command("git", "describe",
		"--long", "--tags", "--dirty", "--always")
	out, err := cmd.Output()
	if err != nil {
		verbosePrintf("git describe returned error: %v\n", err)
		return ""
	}

	version := strings.TrimSpace(string(out))
	verbosePrintf("git version is %s\n", version)
	return version
}

func main() {
	var (
		tags   []string
		output = outputName
		env    = []string{"CGO_ENABLED=0"}
	)

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		needArg := func() string {
			if i+1 >= len(args) {
				die("option %q requires an argument\n", arg)
			}
			i++
			return args[i]
		}

		switch arg {
		case "-v", "--verbose":
			verbose = true
		case "-t", "-tags", "--tags":
			tags = append(tags, strings.Split(needArg(), ",")...)
		case "-o", "--output":
			output = needArg()
		case "--goos":
			env = append(env, "GOOS="+needArg())
		case "--goarch":
			env = append(env, "GOARCH="+needArg())
		case "-T", "--test":
			runTests = true
		case "-h":
			showUsage(os.Stdout)
			return
		default:
			fmt.Fprintf(os.Stderr, "Error: unknown option %q\n\n", arg)
			showUsage(os.Stderr)
			os.Exit(1)
		}
	}

	if runTests {
		if err := run(env, "test", "./..."); err != nil {
			die("running tests failed: %v\n", err)
		}
		return
	}

	ldflags := "-s -w"
	if version := getVersion(); version != "" {
		ldflags += fmt.Sprintf(" -X main.version=%s", version)
	}

	buildArgs := []string{"build", "-trimpath", "-ldflags", ldflags, "-o", filepath.Clean(output)}
	if len(tags) > 0 {
		buildArgs = append(buildArgs, "-tags", strings.Join(tags, ","))
	}
	buildArgs = append(buildArgs, mainPackage)

	if err := run(env, buildArgs...); err != nil {
		die("build failed: %v\n", err)
	}
}
