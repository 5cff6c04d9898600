package cmd

import (
	"github.com/spf13/cobra"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "stemviz",
	Short: "Stem separation and piano roll visualization",
	Long: `Separates uploaded audio into instrument stems with note data, renders
the notes as piano rolls and downloads combined mp3 or midi files.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
