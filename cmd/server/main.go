package main

import (
	"github.com/lumen-edu/lumen/internal/server"
	"github.com/lumen-edu/lumen/internal/util"
	"github.com/lumen-edu/lumen/pkg/logger"
	"github.com/lumen-edu/lumen/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleBackend(console.ConsoleBackendParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
