package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"

	"github.com/jointwt/logingate/client"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:     "login [flags]",
	Aliases: []string{"auth"},
	Short:   "Login to a logingate server",
	Long: `Prompts for a login id and password, logs in and saves the session
cookie to the config file.`,
	Args: cobra.MaximumNArgs(0),
	Run: func(cmd *cobra.Command, args []string) {
		cli, err := newClient()
		if err != nil {
			log.WithError(err).Error("error creating client")
			os.Exit(1)
		}

		login(cli)
	},
}

func init() {
	RootCmd.AddCommand(loginCmd)
}

func readCredentials() (string, string, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Login ID: ")
	loginID, err := reader.ReadString('\n')
	if err != nil {
		log.WithError(err).Error("error reading login id")
		return "", "", err
	}

	fmt.Print("Password: ")
	data, err := terminal.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		log.WithError(err).Error("error reading password")
		return "", "", err
	}

	return strings.TrimSpace(loginID), string(data), nil
}

func login(cli *client.Client) {
	loginID, password, err := readCredentials()
	if err != nil {
		log.WithError(err).Error("error reading credentials")
		os.Exit(1)
	}

	if err := cli.Login(loginID, password); err != nil {
		log.WithError(err).Error("error logging in")
		os.Exit(1)
	}

	log.Info("login successful")

	if err := saveConfig(cli); err != nil {
		log.WithError(err).Error("error saving config")
		os.Exit(1)
	}
}
