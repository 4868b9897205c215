package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hk-bmi/ontoemma/types"
)

const (
	configName = ".ontoemma"
	envPrefix  = "ONTOEMMA"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single instance of Validate, it caches struct info
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// validateAppConfig performs validation on the AppConfig struct.
func validateAppConfig(config *types.AppConfig) error {
	return validate.Struct(config)
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// Load .env file first if present; it's okay if it doesn't exist.
	if err := godotenv.Load(); err != nil {
		LogError("no .env file loaded", err)
	}

	// Environment variable handling must be set up BEFORE reading the config
	// file, so that env vars can influence config loading.
	viper.SetEnvPrefix(envPrefix) // e.g., ONTOEMMA_VERBOSE
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // matcher.ngramSize -> ONTOEMMA_MATCHER_NGRAMSIZE

	cfgFileFlag := viper.GetString("config") // Value from --config flag

	if cfgFileFlag != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFileFlag)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(".")        // ./.ontoemma.yaml
		viper.AddConfigPath(home)       // $HOME/.ontoemma.yaml
		viper.SetConfigName(configName)
	}

	// Attempt to read the configuration file.
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFileFlag != "" {
				fmt.Fprintln(os.Stderr, "Error: Specified config file not found:", cfgFileFlag)
			} else if viper.GetBool("verbose") {
				fmt.Fprintln(os.Stderr, "No config file found. Using defaults and environment variables.")
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	// Set default values
	defaults := types.DefaultMatcherConfig()
	viper.SetDefault("kb.dir", "kbs")
	viper.SetDefault("kb.trainingKbs", []string{})
	viper.SetDefault("matcher.scoreThreshold", defaults.ScoreThreshold)
	viper.SetDefault("matcher.keepTopKCandidates", defaults.KeepTopKCandidates)
	viper.SetDefault("matcher.minTrainingSetSize", defaults.MinTrainingSetSize)
	viper.SetDefault("matcher.ngramSize", defaults.NGramSize)
	viper.SetDefault("matcher.aliasSampleBound", defaults.AliasSampleBound)
	viper.SetDefault("matcher.aliasSampleSeed", defaults.AliasSampleSeed)
	viper.SetDefault("matcher.missedFile", defaults.MissedFile)
	viper.SetDefault("matcher.classifier", defaults.Classifier)

	// After all sources are configured, unmarshal into GlobalAppConfig
	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling config: %s\n", err)
		os.Exit(1)
	}

	// Validate the populated configuration
	if err := validateAppConfig(&GlobalAppConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation error: %s\n", err)
		os.Exit(1)
	}
}

// GetConfig returns a pointer to the global types.AppConfig instance.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}
