package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jsphweid/stemviz/client"
	"github.com/jsphweid/stemviz/constants"
	"github.com/jsphweid/stemviz/logger"
	"github.com/jsphweid/stemviz/model"
	"github.com/jsphweid/stemviz/pianoroll"
	"github.com/jsphweid/stemviz/viewer"
)

var (
	serverURL   string
	convertOpts renderOptions
)

func init() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", fmt.Sprintf("http://localhost:%d", constants.DefaultPort), "conversion server url")
	f := convertCmd.Flags()
	f.StringVarP(&convertOpts.out, "out", "o", ".", "output directory for pngs")
	f.IntVar(&convertOpts.width, "width", constants.DefaultContainerWidth, "container width in pixels")
	f.BoolVar(&convertOpts.fixedHeight, "fixed-height", false, "keep the canvas at 200px regardless of pitch range")
	f.BoolVar(&convertOpts.gridOver, "grid-over", false, "draw the grid over the notes")
}

var convertCmd = &cobra.Command{
	Use:   "convert <audio file>",
	Short: "Uploads audio for conversion and renders the result",
	Long:  `Uploads audio for conversion, renders each instrument's piano roll to png and prints the job id.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.New(debug)
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		c := client.New(serverURL)
		c.Log = log
		res, err := c.Convert(ctx, args[0])
		if err != nil {
			return err
		}
		log.Info("converted", zap.String("job", res.JobID), zap.Int("instruments", len(res.VisualizationData)))

		written, err := convertAndRender(ctx, res, convertOpts, log)
		for _, p := range written {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.JobID)
		return err
	},
}

// convertAndRender pushes a conversion response through a viewer and writes
// the resulting surfaces once the batch has rendered.
func convertAndRender(ctx context.Context, res *model.ConvertResponse, opts renderOptions, log *zap.Logger) ([]string, error) {
	board := pianoroll.NewInstrumentBoard(opts.width, model.Instruments...)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		written []string
		result  error
	)
	v := viewer.New(pianoroll.New(rendererOptions(opts, log)...), board,
		viewer.WithLogger(log),
		viewer.OnRendered(func(_ model.VisualizationBatch, err error) {
			paths, werr := board.WritePNGs(opts.out)
			written = paths
			result = multierr.Append(err, werr)
			cancel()
		}),
	)

	errc := make(chan error, 1)
	go func() { errc <- v.Run(ctx) }()
	if err := v.Apply(ctx, res); err != nil {
		return nil, err
	}
	<-errc
	return written, result
}
