package cmd

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/smart-hr/internal/tools"
	"github.com/spigell/smart-hr/internal/wire"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the smart-hr version and the assistant contract it ships",
	Run: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		printVersion(cmd.OutOrStdout(), verbose)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("verbose", "v", false, "also list assistant capabilities and card tags")
}

func printVersion(w io.Writer, verbose bool) {
	fmt.Fprintf(w, "%s version: %s (%s %s/%s)\n", app, version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if !verbose {
		return
	}

	names := make([]string, 0, len(tools.Specs()))
	for _, spec := range tools.Specs() {
		names = append(names, string(spec.Name))
	}
	fmt.Fprintf(w, "capabilities: %s\n", strings.Join(names, ", "))
	fmt.Fprintf(w, "cards: <%s>, <%s>\n", wire.TagApplication, wire.TagJob)
}
