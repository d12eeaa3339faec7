package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var propsCmd = &cobra.Command{
	Use:     "props <slide> [prefix]",
	Aliases: []string{"properties"},
	Short:   "Print slide properties",
	GroupID: "inspect",
	Long: `Props prints the name/value properties of a slide, sorted by name.
An optional prefix limits output to matching names.

Examples:
  slideinfo props input.svs
  slideinfo props input.svs aperio.
  slideinfo props -o yaml input.svs`,
	Args:              cobra.RangeArgs(1, 2),
	RunE:              runProps,
	ValidArgsFunction: completeSlidePath,
}

func init() {
	addOutputFlag(propsCmd)
	//nolint:errcheck // flag is defined above
	propsCmd.RegisterFlagCompletionFunc("output", completeOutputFormat)
	rootCmd.AddCommand(propsCmd)
}

func runProps(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	slide, err := openSlide(args[0])
	if err != nil {
		return err
	}
	defer slide.Close()

	props, err := slide.Properties()
	if err != nil {
		return err
	}
	if len(args) == 2 {
		maps.DeleteFunc(props, func(k, _ string) bool {
			return !strings.HasPrefix(k, args[1])
		})
	}

	if format != outputText {
		return writeStructured(cmd.OutOrStdout(), format, props)
	}

	out := cmd.OutOrStdout()
	for _, k := range slices.Sorted(maps.Keys(props)) {
		fmt.Fprintf(out, "%s = %s\n", k, strings.ReplaceAll(props[k], "\n", `\n`))
	}
	return nil
}
