package app

import (
	"fmt"

	"github.com/spf13/viper"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/otakit/ota-agent/cmd/ota-agent/app/options"
	"github.com/otakit/ota-agent/pkg/app"
	"github.com/otakit/ota-agent/pkg/log"
)

const (
	commandName = "ota-agent"
	commandDesc = `The OTA agent runs on the device. It asks the version oracle which
firmware the device should run, streams a newer image into the inactive
slot, verifies it byte for byte, commits it and restarts the device into it.`
)

func NewApp() *app.App {
	opts := options.NewAgentOptions()
	application := app.NewApp(
		commandName,
		"Launch the OTA update agent",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithConfigReload(reloadLogLevel),
		app.WithSubCommands(newSlotsCommand(), newVersionCommand()),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.AgentOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		agent, err := cfg.NewAgent()
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}

		return agent.Run(ctx)
	}
}

// reloadLogLevel applies a changed log.level without a restart.
func reloadLogLevel(v *viper.Viper) {
	level := v.GetString("log.level")
	if err := log.SetLevel(level); err != nil {
		log.Error(err, "Ignoring invalid log level from config file", "level", level)
		return
	}
	log.Info("Log level updated", "level", level)
}
