package cmd

import (
	"fmt"
	"strings"

	"github.com/keywarden/keywarden/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "keywarden",
	Short: "Single-instance credential manager",
	Long: `Keywarden is a credential manager that enforces a single running
instance per user. A second launch forwards its work to the running
instance and exits; an instance owned by another user or session is
reported and left alone.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// ExitCodeError carries a non-zero process exit code out of the command tree
// without printing anything; diagnostics have already been shown.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/keywarden/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	// Startup option flags
	rootCmd.Flags().String("import-path", "", "credential file to import, locally or via the running instance")
	rootCmd.Flags().String("export-path", "", "export all credentials to this file and exit")
	rootCmd.Flags().String("fatal-message", "", "display this startup error message and exit")
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/keywarden")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("KEYWARDEN")
	// Replace dots with underscores for nested keys in env vars
	// e.g., KEYWARDEN_LOGGING_LEVEL for logging.level
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
