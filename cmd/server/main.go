package main

import (
	"log"

	"storesight-backend/internal/config"
	"storesight-backend/internal/database"
	"storesight-backend/internal/server"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := server.New(cfg, database.DB)

	log.Println("Server running on port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
