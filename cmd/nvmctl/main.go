package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"nvmenv/internal/cli"
	"nvmenv/internal/logging"
)

func main() {
	if err := logging.Init(os.Getenv("NVMENV_LOG_LEVEL")); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
