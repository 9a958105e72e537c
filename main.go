package main

import (
	"fmt"
	"net/http"

	"havenpanel/paneld/internal/config"
	"havenpanel/paneld/internal/server"
)

func main() {
	cfg := config.FromEnv()
	r, err := server.NewRouter(cfg)
	if err != nil {
		server.Logger(cfg).Fatal().Err(err).Msg("startup failed")
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server.Logger(cfg).Info().Msgf("paneld listening on http://%s", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		server.Logger(cfg).Fatal().Err(err).Msg("server exited")
	}
}
