package main

import (
	"embed"

	"audio-transcription/internal/bootstrap"
	"audio-transcription/internal/config"
	"audio-transcription/internal/logging"
)

//go:embed frontend/index.html
var appAssets embed.FS

func main() {
	envErr := config.LoadDotEnv(".env")
	log := logging.New(logging.FromEnv())
	if envErr != nil {
		log.Warn().Err(envErr).Msg("load .env")
	}

	app, err := bootstrap.NewWithAssets(appAssets, log)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap app")
	}

	if err := app.Run(); err != nil {
		log.Fatal().Err(err).Msg("run app")
	}
}
