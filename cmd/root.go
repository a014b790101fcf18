package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/config"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/logging"
	"github.com/sailor103/pcdn-ban-ip-for-jiangsu/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pcdnban",
	Short: "Build IPv4 block lists for banning PCDN traffic",
	Long: `pcdnban turns web server access logs into a compact IPv4 block list.

It counts client addresses across (gzipped) access logs, geolocates them,
filters the heavy hitters of a region into /24 and /16 prefixes, and
removes every CIDR block already covered by a broader one.

Examples:
  pcdnban count /var/log/nginx/*.gz
  pcdnban filter --min-count 80 --region 江苏 ip-statistics.csv
  pcdnban merge all_ip.origin.txt -o all_ip.txt
  pcdnban merge --watch --strategy trie all_ip.origin.txt`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pcdnban.yaml)")
	rootCmd.PersistentFlags().StringP("format", "f", "text", "output format (text, json, table)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to a rotating file instead of stderr")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto, always, never)")

	_ = viper.BindPFlag("format", rootCmd.PersistentFlags().Lookup("format"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	_ = viper.BindPFlag("color", rootCmd.PersistentFlags().Lookup("color"))
}

func initConfig() {
	// A missing .env is normal; anything set there only fills unset variables.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".pcdnban")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PCDNBAN")
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// session bundles what every command needs: the decoded config, a logger
// and an output writer bound to the command's stdout.
type session struct {
	cfg    config.Config
	logger *log.Logger
	out    *output.Writer
	closer io.Closer
}

func (r *session) Close() error {
	return r.closer.Close()
}

// newSession loads configuration from the global viper instance. Defaults
// are registered again so commands also work when initConfig did not run.
func newSession(cmd *cobra.Command) (*session, error) {
	config.SetDefaults(viper.GetViper())

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Verbose: cfg.Verbose,
		File:    cfg.LogFile,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	out := output.NewWithColor(cmd.OutOrStdout(), output.ParseFormat(cfg.Format),
		output.ParseColorMode(viper.GetString("color")))

	return &session{cfg: cfg, logger: logger, out: out, closer: closer}, nil
}

// Flag values override configuration only when set on the command line.

func overrideString(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

func overrideInt(cmd *cobra.Command, name string, dst *int) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
