package cmd

import (
	"fmt"
	"runtime"

	"github.com/AnyUserName/cutout/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
	log     zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cutout",
	Short: "Batch background removal and product-photo framing",
	Long: `cutout removes the background from every photo in a folder, auto-adjusts
brightness, color, contrast and sharpness from measured statistics, and
centers the subject on a 1000×1000 white canvas with a 37 px margin.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		log = logger.NewConsole(verbose)
	},
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		log.Error().Err(err).Msg("cutout")
	}
	return err
}

func init() {
	log = logger.NewConsole(false)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"cutout %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}
