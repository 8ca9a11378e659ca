package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gatehouse-io/gatehouse/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s (%s)\n", styleBrand.Render("Gatehouse"), buildinfo.Version, buildinfo.Codename)
		fmt.Printf("  OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		fmt.Printf("  Go: %s\n", runtime.Version())
		if buildinfo.CommitHash != "unknown" {
			fmt.Printf("  Commit: %s (%s)\n", buildinfo.CommitHash, buildinfo.BuildDate)
		}
	},
}
