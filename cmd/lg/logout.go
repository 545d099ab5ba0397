package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [flags]",
	Short: "Logout and forget the saved session",
	Args:  cobra.MaximumNArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		cli, err := newClient()
		if err != nil {
			log.WithError(err).Error("error creating client")
			os.Exit(1)
		}

		if err := cli.Logout(); err != nil {
			log.WithError(err).Error("error logging out")
			os.Exit(1)
		}

		if err := saveConfig(cli); err != nil {
			log.WithError(err).Error("error saving config")
			os.Exit(1)
		}

		log.Info("logged out")
	},
}

func init() {
	RootCmd.AddCommand(logoutCmd)
}
