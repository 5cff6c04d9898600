package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jsphweid/stemviz/constants"
	"github.com/jsphweid/stemviz/logger"
	"github.com/jsphweid/stemviz/midi"
	"github.com/jsphweid/stemviz/model"
	"github.com/jsphweid/stemviz/pianoroll"
	"github.com/jsphweid/stemviz/util"
)

type renderOptions struct {
	batch       string
	out         string
	width       int
	fixedHeight bool
	gridOver    bool
}

var renderOpts renderOptions

func init() {
	rootCmd.AddCommand(renderCmd)
	f := renderCmd.Flags()
	f.StringVar(&renderOpts.batch, "batch", "", "visualization data or convert response json")
	f.StringVarP(&renderOpts.out, "out", "o", ".", "output directory for pngs")
	f.IntVar(&renderOpts.width, "width", constants.DefaultContainerWidth, "container width in pixels")
	f.BoolVar(&renderOpts.fixedHeight, "fixed-height", false, "keep the canvas at 200px regardless of pitch range")
	f.BoolVar(&renderOpts.gridOver, "grid-over", false, "draw the grid over the notes")
}

var renderCmd = &cobra.Command{
	Use:   "render [midi files...]",
	Short: "Renders piano rolls to png",
	Long: `Renders piano rolls to png. Notes come from --batch or from midi files,
where each file's base name is the instrument.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if renderOpts.batch == "" && len(args) == 0 {
			return errors.New("need --batch or at least one midi file")
		}
		log := logger.New(debug)
		defer log.Sync()

		batch, err := loadBatch(renderOpts.batch, args, log)
		if err != nil {
			return err
		}
		written, err := renderBatch(batch, renderOpts, log)
		for _, p := range written {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return err
	},
}

func loadBatch(batchPath string, midiPaths []string, log *zap.Logger) (model.VisualizationBatch, error) {
	batch := make(model.VisualizationBatch)
	if batchPath != "" {
		f, err := os.Open(batchPath)
		if err != nil {
			return nil, errors.Wrapf(err, "could not open %s", batchPath)
		}
		defer f.Close()
		var skipped int
		if batch, skipped, err = model.DecodeBatch(f); err != nil {
			return nil, err
		}
		if skipped > 0 {
			log.Warn("dropped undecodable notes", zap.String("batch", batchPath), zap.Int("skipped", skipped))
		}
	}
	for _, p := range midiPaths {
		notes, err := midi.ExtractNotesFromFile(p)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		batch[name] = notes
	}
	return batch, nil
}

func rendererOptions(opts renderOptions, log *zap.Logger) []pianoroll.Option {
	ropts := []pianoroll.Option{pianoroll.WithLogger(log)}
	if opts.fixedHeight {
		ropts = append(ropts, pianoroll.WithFixedHeight())
	}
	if opts.gridOver {
		ropts = append(ropts, pianoroll.WithGridOverNotes())
	}
	return ropts
}

func renderBatch(batch model.VisualizationBatch, opts renderOptions, log *zap.Logger) ([]string, error) {
	r := pianoroll.New(rendererOptions(opts, log)...)
	board := pianoroll.NewInstrumentBoard(opts.width, util.GetKeys(batch)...)
	if err := r.RenderVisualization(batch, board); err != nil {
		return nil, err
	}
	return board.WritePNGs(opts.out)
}
