package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/Unknown-2829/Hitek-db-api-web/lookupservice"
)

func main() {
	if err := lookupservice.Run(); err != nil {
		log.Error().Err(err).Msg("hitek-server exited with error")
		os.Exit(1)
	}
}
