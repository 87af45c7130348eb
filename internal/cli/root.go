package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andywolf/crashreporter/internal/version"
)

const configName = ".crashreporter"

var cfgFile string

// envKeys are the config keys that may be set through CRASHREPORTER_* variables.
var envKeys = []string{
	"bugzilla.url",
	"bugzilla.login",
	"bugzilla.password",
	"bugzilla.password_secret",
	"bugzilla.no_ssl_verify",
	"bugzilla.timeout",
	"bugzilla.summary_prefix",
	"bugzilla.legacy_file",
	"logging.format",
	"logging.gcp_project",
	"logging.log_id",
	"telemetry.enabled",
	"telemetry.stdout",
}

var rootCmd = &cobra.Command{
	Use:   "crashreporter",
	Short: "crashreporter - file crash reports in Bugzilla",
	Long: `crashreporter submits a captured crash report to Bugzilla.

It searches for an issue already filed for the same crash and adds you to
its CC list, or files a new issue with the crash details and attachments.

Example:
  crashreporter report /var/spool/abrt/ccpp-1700000000-4242`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext runs the root command with ctx available to subcommands.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Set version for --version flag
	rootCmd.Version = version.Short()
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .crashreporter.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable verbose output")
	rootCmd.PersistentFlags().String("url", "", "Bugzilla base URL")
	rootCmd.PersistentFlags().String("login", "", "Bugzilla login")
	rootCmd.PersistentFlags().Bool("no-ssl-verify", false, "skip TLS certificate verification")
	rootCmd.PersistentFlags().String("log-format", "", "progress output format (text or json)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("bugzilla.url", rootCmd.PersistentFlags().Lookup("url"))
	_ = viper.BindPFlag("bugzilla.login", rootCmd.PersistentFlags().Lookup("login"))
	_ = viper.BindPFlag("bugzilla.no_ssl_verify", rootCmd.PersistentFlags().Lookup("no-ssl-verify"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error getting working directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName(configName)
	}

	viper.SetEnvPrefix("CRASHREPORTER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// configPath returns the file settings are written to.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return configName + ".yaml"
}
