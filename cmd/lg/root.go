package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jointwt/logingate"
	"github.com/jointwt/logingate/client"
)

const configName = ".lg.yaml"

var configFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "lg",
	Version: logingate.FullVersion(),
	Short:   "Command-line client for logingate",
	Long: `lg logs in to a logingate server and keeps the session cookie in
its config file so later commands run as the logged in member.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// set logging level
		if viper.GetBool("debug") {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.InfoLevel)
		}
	},
}

// Execute adds all child commands to the root command
// and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.WithError(err).Error("error executing command")
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVarP(
		&configFile, "config", "c", "",
		"config file (default $HOME/"+configName+")",
	)

	RootCmd.PersistentFlags().BoolP(
		"debug", "d", false,
		"Enable debug logging",
	)

	RootCmd.PersistentFlags().StringP(
		"uri", "u", client.DefaultURI,
		"logingate server URI to connect to",
	)

	RootCmd.PersistentFlags().String(
		"cookie-name", client.DefaultCookieName,
		"session cookie name used by the server",
	)

	viper.BindPFlag("uri", RootCmd.PersistentFlags().Lookup("uri"))
	viper.SetDefault("uri", client.DefaultURI)

	viper.BindPFlag("cookie_name", RootCmd.PersistentFlags().Lookup("cookie-name"))
	viper.SetDefault("cookie_name", client.DefaultCookieName)

	viper.BindPFlag("debug", RootCmd.PersistentFlags().Lookup("debug"))
	viper.SetDefault("debug", false)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if configFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(configFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.SetConfigFile(filepath.Join(home, configName))
	}

	// from the environment
	viper.SetEnvPrefix("LG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		log.WithError(err).Debug("no config file loaded")
		return
	}
	log.Debugf("Using config file: %s", viper.ConfigFileUsed())
}

// configPath returns the path the client config is saved to
func configPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}

	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configName), nil
}

// newClient creates a client from the config file, environment and flags
func newClient() (*client.Client, error) {
	return client.NewClient(
		client.WithURI(viper.GetString("uri")),
		client.WithCookieName(viper.GetString("cookie_name")),
		client.WithSession(viper.GetString("session")),
	)
}

// saveConfig persists the client's config, including its session
func saveConfig(cli *client.Client) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	return cli.Config.Save(path)
}
