package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sleepstars/edgee-go/internal/config"
	"github.com/sleepstars/edgee-go/internal/logger"
	"github.com/sleepstars/edgee-go/internal/mockgateway"
)

func main() {
	configPath := flag.String("config", "", "Path to the mock gateway configuration file")
	port := flag.String("port", "", "Port to run the server on, overrides listen")
	flag.Parse()

	// The logger is initialised once, so config errors go to stderr until
	// the configured level is known.
	cfg, err := loadConfig(*configPath, *port)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.ParseLevel(cfg.LogLevel), "mockserver")
	log := logger.GetLogger()
	defer log.Sync()

	if logger.ParseLevel(cfg.LogLevel) != logger.DEBUG {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := mockgateway.New(cfg).Run(cfg.Listen); err != nil {
		log.WithError(err).Fatal("Mock gateway stopped")
	}
}

// loadConfig reads path, or the defaults when path is empty, and applies port
func loadConfig(path, port string) (*config.MockGatewayConfig, error) {
	cfg := config.DefaultMockGatewayConfig()
	if path != "" {
		loaded, err := config.LoadMockGatewayConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if port != "" {
		cfg.Listen = ":" + port
	}
	return cfg, nil
}
