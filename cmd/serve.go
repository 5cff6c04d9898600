package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jsphweid/stemviz/constants"
	"github.com/jsphweid/stemviz/db"
	"github.com/jsphweid/stemviz/logger"
	"github.com/jsphweid/stemviz/mixdown"
	"github.com/jsphweid/stemviz/separate"
	"github.com/jsphweid/stemviz/server"
)

type serveOptions struct {
	port           int
	separatorBin   string
	separatorArgs  []string
	ffmpegBin      string
	store          string
	sqlitePath     string
	dynamoRegion   string
	dynamoEndpoint string
	dynamoTable    string
	corsOrigins    []string
}

var serveOpts serveOptions

func init() {
	rootCmd.AddCommand(serveCmd)
	f := serveCmd.Flags()
	f.IntVar(&serveOpts.port, "port", constants.DefaultPort, "port to listen on")
	f.StringVar(&serveOpts.separatorBin, "separator", constants.DefaultSeparatorBin, "separation program")
	f.StringSliceVar(&serveOpts.separatorArgs, "separator-args", constants.DefaultSeparatorArgs, "separation program arguments, {input} and {out} are replaced")
	f.StringVar(&serveOpts.ffmpegBin, "ffmpeg", "ffmpeg", "path to ffmpeg")
	f.StringVar(&serveOpts.store, "store", "sqlite", "job store: sqlite|dynamodb")
	f.StringVar(&serveOpts.sqlitePath, "sqlite-path", constants.GetSQLitePath(), "sqlite database path")
	f.StringVar(&serveOpts.dynamoRegion, "dynamo-region", "us-east-1", "DynamoDB region")
	f.StringVar(&serveOpts.dynamoEndpoint, "dynamo-endpoint", "", "DynamoDB endpoint, e.g. http://localhost:8000")
	f.StringVar(&serveOpts.dynamoTable, "dynamo-table", constants.DynamoTable, "DynamoDB table")
	f.StringSliceVar(&serveOpts.corsOrigins, "cors-origin", []string{"*"}, "allowed CORS origins")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the conversion server",
	Long:  `Runs the conversion server`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(serveOpts)
	},
}

func openStore(opts serveOptions) (db.JobStore, func(), error) {
	switch opts.store {
	case "sqlite":
		s, err := db.OpenSQLite(opts.sqlitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "dynamodb":
		s, err := db.NewDynamoStore(opts.dynamoRegion, opts.dynamoEndpoint, opts.dynamoTable)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", opts.store)
}

func serve(opts serveOptions) error {
	log := logger.New(debug)
	defer log.Sync()

	store, closeStore, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	s := &server.Server{
		UploadDir:    constants.GetUploadDir(),
		SeparatedDir: constants.GetSeparatedDir(),
		StaticDir:    constants.GetStaticDir(),
		Separator: &separate.CommandSeparator{
			Bin:  opts.separatorBin,
			Args: opts.separatorArgs,
			Log:  log,
		},
		Mixer: &mixdown.FFmpeg{Bin: opts.ffmpegBin},
		Jobs:  store,
		Log:   log,
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.port),
		Handler:           s.Handler(opts.corsOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening", zap.String("addr", srv.Addr), zap.String("store", opts.store))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server failed")
	}
	return nil
}
