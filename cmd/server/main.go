package main

import (
	"github.com/Abdulelahsg/dynamic-links/internal/app/server"
	"github.com/Abdulelahsg/dynamic-links/internal/config"
)

func main() {
	cfg := config.Load()
	config.SetupLogging(cfg.Server.LogLevel)
	server.Run(cfg)
}
