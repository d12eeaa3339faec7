package cli

import (
	"github.com/spf13/cobra"
)

// slideExtensions are the file extensions offered for slide arguments.
var slideExtensions = []string{"svs", "tif", "tiff", "btf", "gz", "zst"}

// completeSlidePath completes the single slide argument with slide files.
func completeSlidePath(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return slideExtensions, cobra.ShellCompDirectiveFilterFileExt
}
