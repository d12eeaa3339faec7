package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dimsLevel int

var dimsCmd = &cobra.Command{
	Use:     "dims <slide>",
	Aliases: []string{"dimensions"},
	Short:   "Print the dimensions of a pyramid level",
	GroupID: "inspect",
	Long: `Dims opens a slide, prints the width and height of one pyramid level
and closes it. Level 0 (full resolution) is the default.

Examples:
  slideinfo dims input.svs
  slideinfo dims --level 2 input.svs`,
	Args:              cobra.ExactArgs(1),
	RunE:              runDims,
	ValidArgsFunction: completeSlidePath,
}

func init() {
	dimsCmd.Flags().IntVarP(&dimsLevel, "level", "l", 0, "Pyramid level to report")
	rootCmd.AddCommand(dimsCmd)
}

func runDims(cmd *cobra.Command, args []string) error {
	slide, err := openSlide(args[0])
	if err != nil {
		return err
	}
	defer slide.Close()

	width, height, err := slide.LevelDimensions(dimsLevel)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Slide dimensions: %d x %d\n", width, height)
	return nil
}
