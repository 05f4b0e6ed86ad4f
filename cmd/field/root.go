package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bantayani/internal/client"
	"bantayani/internal/offline"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type Settings struct {
	APIURL    string
	Token     string
	TokenFile string
	QueueFile string
	Debug     bool
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bantayani"
	}
	return filepath.Join(home, ".bantayani")
}

// RootCommand builds the CLI. Flags fall back to BANTAYANI_* environment
// variables through viper.
func RootCommand() *cobra.Command {
	settings := &Settings{}

	rootCmd := &cobra.Command{
		Use:           "field",
		Short:         "BantayAni field client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	setupFlags(rootCmd)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		settings.APIURL = viper.GetString("api-url")
		settings.Token = viper.GetString("token")
		settings.TokenFile = viper.GetString("token-file")
		settings.QueueFile = viper.GetString("queue-file")
		settings.Debug = viper.GetBool("debug")

		level := slog.LevelWarn
		if settings.Debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	}

	rootCmd.AddCommand(
		loginCommand(settings),
		logoutCommand(settings),
		scanCommand(settings),
		syncCommand(settings),
		reviewCommand(settings),
		watchCommand(settings),
		statsCommand(settings),
	)
	return rootCmd
}

func setupFlags(rootCmd *cobra.Command) {
	viper.SetEnvPrefix("BANTAYANI")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	dir := defaultDir()
	viper.SetDefault("api-url", "http://localhost:8080/api/v1")
	viper.SetDefault("token-file", filepath.Join(dir, "token"))
	viper.SetDefault("queue-file", filepath.Join(dir, "offline_reports.json"))

	flags := rootCmd.PersistentFlags()
	flags.String("api-url", viper.GetString("api-url"), "API base URL")
	flags.String("token", "", "Access token (overrides the saved session)")
	flags.String("token-file", viper.GetString("token-file"), "Where the session token is saved")
	flags.String("queue-file", viper.GetString("queue-file"), "Offline report queue file")
	flags.BoolP("debug", "d", false, "Enable debug output")

	if err := viper.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("error binding flags: %w", err))
	}
}

// newClient returns an API client carrying the saved or explicit token.
func (s *Settings) newClient() *client.Client {
	c := client.New(s.APIURL)
	token := s.Token
	if token == "" {
		if raw, err := os.ReadFile(s.TokenFile); err == nil {
			token = strings.TrimSpace(string(raw))
		}
	}
	if token != "" {
		c.SetToken(token)
	}
	return c
}

func (s *Settings) requireSession() (*client.Client, error) {
	c := s.newClient()
	if c.Token() == "" {
		return nil, errors.New("not logged in: run `field login` or set BANTAYANI_TOKEN")
	}
	return c, nil
}

func (s *Settings) saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.TokenFile), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.TokenFile, []byte(token), 0o600)
}

func (s *Settings) openQueue() (*offline.Queue, error) {
	return offline.Open(s.QueueFile)
}
