package main

import (
	"context"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app"

	"github.com/rs/zerolog/log"
)

func main() {
	a, err := app.NewApp(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize app")
	}

	router, err := a.NewRouter()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize router")
	}

	if err := router.Run("0.0.0.0:" + a.Cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
