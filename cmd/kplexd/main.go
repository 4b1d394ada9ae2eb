package main

import (
	"os"

	flag "github.com/spf13/pflag"

	"github.com/lanikai/kplex"
	_ "github.com/lanikai/kplex/internal/adapter"
	"github.com/lanikai/kplex/internal/logging"
)

func main() {
	flag.Parse()

	if flagHelp {
		help()
		os.Exit(0)
	}

	if flagVersion {
		version()
		os.Exit(0)
	}

	log := logging.DefaultLogger.WithTag("kplex")

	cfg, err := kplex.LoadConfigFile(flagConfig)
	if err != nil {
		log.Fatalf("%v", err)
	}

	for _, arg := range flag.Args() {
		d, err := kplex.ParseInlineDescriptor(arg)
		if err != nil {
			log.Fatalf("%v", err)
		}
		cfg.Endpoints = append(cfg.Endpoints, d)
	}

	if flagQueueSize != 0 {
		cfg.QueueSize = flagQueueSize
	}
	if flagFacility != "" {
		cfg.LogFacility = flagFacility
	}
	if flagBackground {
		cfg.Background = true
	}

	if cfg.LogFacility != "" {
		if err := logging.UseSyslog(cfg.LogFacility); err != nil {
			log.Fatalf("%v", err)
		}
		// Re-derive so this logger, and the Supervisor it is handed to,
		// pick up the syslog destination.
		log = logging.DefaultLogger.WithTag("kplex")
	}

	if cfg.Background {
		log.Info("running detached")
	}

	sup, err := kplex.NewSupervisor(cfg, log)
	if err != nil {
		log.Fatalf("%v", err)
	}

	os.Exit(sup.Run())
}
