package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jsphweid/stemviz/client"
	"github.com/jsphweid/stemviz/model"
)

var (
	downloadJob         string
	downloadKind        string
	downloadInstruments []string
	downloadOut         string
)

func init() {
	rootCmd.AddCommand(downloadCmd)
	f := downloadCmd.Flags()
	f.StringVar(&downloadJob, "job", "", "job id returned by convert")
	f.StringVar(&downloadKind, "kind", string(client.KindMP3), "mp3|midi")
	f.StringSliceVar(&downloadInstruments, "instruments", model.Instruments, "instruments to combine")
	f.StringVarP(&downloadOut, "out", "o", "", "output file, defaults to combined.<kind>")
	downloadCmd.MarkFlagRequired("job")
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Downloads combined instruments of a job",
	Long:  `Downloads the selected instruments of a job combined into one mp3 or midi file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := client.Kind(downloadKind)
		out := downloadOut
		if out == "" {
			out = kind.Filename()
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return errors.Wrap(err, "could not create output dir")
		}
		f, err := os.Create(out)
		if err != nil {
			return errors.Wrapf(err, "could not create %s", out)
		}
		defer f.Close()

		dr := model.DownloadRequest{Instruments: downloadInstruments, JobID: downloadJob}
		if err := client.New(serverURL).DownloadCombined(cmd.Context(), kind, dr, f); err != nil {
			f.Close()
			os.Remove(out)
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}
