package main

import (
	"fmt"
	"os"

	humanize "github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jointwt/logingate/client"
)

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:     "whoami [flags]",
	Aliases: []string{"session", "info"},
	Short:   "Display the logged in member and session",
	Args:    cobra.MaximumNArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		cli, err := newClient()
		if err != nil {
			log.WithError(err).Error("error creating client")
			os.Exit(1)
		}

		whoami(cli)
	},
}

func init() {
	RootCmd.AddCommand(whoamiCmd)
}

func whoami(cli *client.Client) {
	info, err := cli.SessionInfo()
	if err != nil {
		log.WithError(err).Error("error retrieving session info (try lg login)")
		os.Exit(1)
	}

	fmt.Printf("%s (%s)\n", info.LoginID, info.Name)
	fmt.Printf("  session:       %s\n", info.Token)
	fmt.Printf("  created:       %s\n", humanize.Time(info.CreatedAt))
	fmt.Printf("  last accessed: %s\n", humanize.Time(info.LastAccessedAt))
	if info.TTL > 0 {
		fmt.Printf("  policy:        %s (%s)\n", info.Policy, info.TTL)
	} else {
		fmt.Printf("  policy:        %s\n", info.Policy)
	}
}
