package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"polygon-ingestor/src/config"
	"polygon-ingestor/src/grpc_control"
	"polygon-ingestor/src/ingestor"
	"polygon-ingestor/src/logger"
)

func main() {
	configPath := flag.String("config", "config/default.yaml", "path to the YAML configuration file")
	flag.Parse()

	log := logger.NewLogger("main")

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		log.Critical("failed to load configuration: %v", err)
	}

	log.Info("starting %s", cfg.Name)

	mdi := ingestor.NewIngestor(cfg, logger.NewLogger("ingestor"))
	if err := mdi.Start(); err != nil {
		log.Critical("failed to start ingestor: %v", err)
	}

	control := grpc_control.NewGRPCService(cfg.GRPC_Host, cfg.GRPC_Port, mdi, logger.NewLogger("grpc"))
	go func() {
		if err := control.Start(); err != nil {
			log.Critical("control server failed: %v", err)
		}
	}()

	// Block until interrupted
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-signals
	log.Info("received signal %s, shutting down", sig)

	control.Stop()
	if err := mdi.Stop(); err != nil {
		log.Error("failed to stop ingestor: %v", err)
	}

	log.Info("shutdown complete")
}
