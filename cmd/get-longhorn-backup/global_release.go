//go:build !debug

package main

import "github.com/spf13/cobra"

func registerProfiling(_ *cobra.Command, _ *GlobalOptions) {
	// No profiling in release mode
}
