package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var assocCmd = &cobra.Command{
	Use:     "assoc <slide>",
	Aliases: []string{"associated"},
	Short:   "List associated images (label, macro, thumbnail)",
	GroupID: "inspect",
	Args:    cobra.ExactArgs(1),
	RunE:    runAssoc,

	ValidArgsFunction: completeSlidePath,
}

func init() {
	rootCmd.AddCommand(assocCmd)
}

func runAssoc(cmd *cobra.Command, args []string) error {
	slide, err := openSlide(args[0])
	if err != nil {
		return err
	}
	defer slide.Close()

	images, err := slide.AssociatedImages()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tWIDTH\tHEIGHT")
	for _, img := range images {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", img.Name, img.Width, img.Height)
	}
	return tw.Flush()
}
