package main

import (
	"context"

	"dogbot/config"
	"dogbot/pkg/logger"
	"dogbot/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	pg, err := postgres.New(context.Background(), cfg, log)

	if err != nil {
		panic(err)
	}
	defer pg.Close()

	// CASCADE clears proposals, assignments and profiles hanging off users.
	_, err = pg.GetPool().Exec(context.Background(),
		"TRUNCATE TABLE users, walker_profiles, orders, proposals, assignments RESTART IDENTITY CASCADE")
	if err != nil {
		log.Error("Failed to truncate tables", logger.Error(err))
	} else {
		log.Info("Successfully truncated users, walker profiles, orders, proposals and assignments.")
	}
}
