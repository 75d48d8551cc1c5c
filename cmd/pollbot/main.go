package main

import (
	"errors"
	"log"

	"pollbot/core/app"
	corecmd "pollbot/core/cmd"
)

var errUnexpectedConfig = errors.New("unexpected config type")

func main() {
	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return app.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			appCfg, ok := cfg.(*app.Config)
			if !ok {
				return nil, errUnexpectedConfig
			}
			return app.Bootstrap(appCfg)
		},
	})
	if err != nil {
		log.Fatalf("pollbot: %v", err)
	}
}
