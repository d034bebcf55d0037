package main

import (
	"fmt"
	"io"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set with -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
// When left unset, writeVersion falls back to the VCS stamp in the build info.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		writeVersion(cmd.OutOrStdout(), readBuildInfo)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetVersionTemplate("arenactl {{.Version}}\n")
}

// buildInfoFunc matches debug.ReadBuildInfo so tests can stub it.
type buildInfoFunc func() (*debug.BuildInfo, bool)

func readBuildInfo() (*debug.BuildInfo, bool) { return debug.ReadBuildInfo() }

func writeVersion(w io.Writer, info buildInfoFunc) {
	rev, built := commit, date
	if bi, ok := info(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if rev == "none" {
					rev = s.Value
				}
			case "vcs.time":
				if built == "unknown" {
					built = s.Value
				}
			}
		}
	}
	fmt.Fprintf(w, "arenactl %s\n", version)
	fmt.Fprintf(w, "  commit: %s\n", rev)
	fmt.Fprintf(w, "  built: %s\n", built)
}
