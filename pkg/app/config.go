package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFlagName = "config"

func (a *App) addConfigFlag(fs *pflag.FlagSet) {
	fs.StringVarP(&a.configFile, configFlagName, "c", a.configFile,
		"Read configuration from the specified YAML file. Flags take precedence over the file.")
}

// readConfig loads the --config file, or <name>.yaml from the working
// directory or /etc/<name> when none is given. A missing default file is
// not an error. Environment variables named <NAME>_<SECTION>_<KEY> are
// honoured for every flag.
func (a *App) readConfig() error {
	a.v.SetEnvPrefix(strings.ToUpper(strings.ReplaceAll(a.name, "-", "_")))
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	} else {
		a.v.AddConfigPath(".")
		a.v.AddConfigPath("/etc/" + a.name)
		a.v.SetConfigName(a.name)
		a.v.SetConfigType("yaml")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read configuration file: %w", err)
	}
	return nil
}
