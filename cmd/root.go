package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"supabase-clone/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	debug   bool

	// AppFs is the filesystem used for config discovery and migration output.
	AppFs = afero.NewOsFs()
)

var RootCmd = &cobra.Command{
	Use:   "supabase-clone",
	Short: "Generate migration SQL to clone one Supabase project into another",
	Long: `
  ___ _   _ ___  _   ___ _    ___  _  _ ___
 / __| | | | _ \/_\ / __| |  / _ \| \| | __|
 \__ \ |_| |  _/ _ \ (__| |_| (_) | .' | _|
 |___/\___/|_|/_/ \_\___|____\___/|_|\_|___|

SUPACLONE - Supabase project schema, RLS and data migration generator
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Setup(viper.GetBool("debug"))
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./supabase-clone.yaml)")
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	RootCmd.PersistentFlags().Duration("timeout", 0, "HTTP timeout per request (e.g. 30s)")

	viper.BindPFlag("debug", RootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("http.timeout", RootCmd.PersistentFlags().Lookup("timeout"))

	viper.SetDefault("http.timeout", "30s")
	viper.SetDefault("migration.type", "both")
	viper.SetDefault("migration.include_rls", true)
	viper.SetDefault("output.dir", ".")
	viper.SetDefault("output.prefix", "supabase_migration")
	viper.SetDefault("management.url", "https://api.supabase.com/v1")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// 1. Executable Directory (Priority 1)
		ex, err := os.Executable()
		if err == nil {
			viper.AddConfigPath(filepath.Dir(ex))
		}

		// 2. Current Directory (Priority 2)
		viper.AddConfigPath(".")

		viper.SetConfigName("supabase-clone")
		viper.SetConfigType("yaml")
	}

	// .env.local overrides whatever main loaded from .env
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	// SUPACLONE_SOURCE_SERVICE_KEY -> source.service_key
	viper.SetEnvPrefix("SUPACLONE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
