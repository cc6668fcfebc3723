package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"teamiq/pkg/teamiq"
)

var (
	cfgFile   string
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:           "teamiqctl",
	Short:         "TeamIQ from the terminal",
	Long:          "teamiqctl drives a TeamIQ server: sign in, inspect your profile and browse tasks.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfig()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.teamiqctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "TeamIQ server base URL")
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".teamiqctl"), nil
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("TEAMIQ")
	viper.AutomaticEnv()
	viper.SetDefault("server", "http://localhost:8080")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and flags cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// newSession builds the SDK session backed by the file token store, so the
// credential survives between invocations.
func newSession() (*teamiq.Session, *teamiq.Client, error) {
	tokenPath := viper.GetString("token_path")
	if tokenPath == "" {
		dir, err := configDir()
		if err != nil {
			return nil, nil, err
		}
		tokenPath = filepath.Join(dir, "token")
	}

	store := teamiq.NewFileTokenStore(tokenPath)
	client := teamiq.NewClient(viper.GetString("server"), store)
	session := teamiq.NewSession(client, store)
	session.OnAuthExpired(func() {
		fmt.Fprintln(os.Stderr, "session expired; run `teamiqctl login`")
	})
	return session, client, nil
}
