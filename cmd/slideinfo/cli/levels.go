package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/slideinfo"
)

var levelsHuman bool

var levelsCmd = &cobra.Command{
	Use:     "levels <slide>",
	Short:   "List the pyramid levels of a slide",
	GroupID: "inspect",
	Long: `Levels prints the geometry of every pyramid level: dimensions,
downsample factor relative to level 0 and tile size.

Examples:
  slideinfo levels input.svs
  slideinfo levels -H input.svs
  slideinfo levels -o json input.svs`,
	Args:              cobra.ExactArgs(1),
	RunE:              runLevels,
	ValidArgsFunction: completeSlidePath,
}

func init() {
	levelsCmd.Flags().BoolVarP(&levelsHuman, "human-readable", "H", false, "Print dimensions with digit grouping and pixel totals")
	addOutputFlag(levelsCmd)
	//nolint:errcheck // flag is defined above
	levelsCmd.RegisterFlagCompletionFunc("output", completeOutputFormat)
	rootCmd.AddCommand(levelsCmd)
}

// levelView is the structured output of one level.
type levelView struct {
	Level      int     `json:"level" yaml:"level"`
	Width      int64   `json:"width" yaml:"width"`
	Height     int64   `json:"height" yaml:"height"`
	Downsample float64 `json:"downsample" yaml:"downsample"`
	TileWidth  int64   `json:"tile_width" yaml:"tile_width"`
	TileHeight int64   `json:"tile_height" yaml:"tile_height"`
}

func runLevels(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	slide, err := openSlide(args[0])
	if err != nil {
		return err
	}
	defer slide.Close()

	levels, err := slide.Levels()
	if err != nil {
		return err
	}

	if format != outputText {
		views := make([]levelView, 0, len(levels))
		for _, l := range levels {
			views = append(views, levelView{
				Level:      l.Index,
				Width:      l.Width,
				Height:     l.Height,
				Downsample: l.Downsample,
				TileWidth:  l.TileWidth,
				TileHeight: l.TileHeight,
			})
		}
		return writeStructured(cmd.OutOrStdout(), format, views)
	}

	printLevels(cmd.OutOrStdout(), levels)
	return nil
}

// printLevels prints levels as an aligned table.
func printLevels(w io.Writer, levels []slideinfo.LevelGeometry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if levelsHuman {
		fmt.Fprintln(tw, "LEVEL\tWIDTH\tHEIGHT\tPIXELS\tDOWNSAMPLE\tTILE")
	} else {
		fmt.Fprintln(tw, "LEVEL\tWIDTH\tHEIGHT\tDOWNSAMPLE\tTILE")
	}
	for _, l := range levels {
		tile := fmt.Sprintf("%dx%d", l.TileWidth, l.TileHeight)
		downsample := strconv.FormatFloat(l.Downsample, 'f', 3, 64)
		if levelsHuman {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
				l.Index,
				humanize.Comma(l.Width),
				humanize.Comma(l.Height),
				humanize.SIWithDigits(float64(l.Width)*float64(l.Height), 1, "px"),
				downsample,
				tile)
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n", l.Index, l.Width, l.Height, downsample, tile)
	}
	tw.Flush()
}
