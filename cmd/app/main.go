package main

import (
	"context"
	"fmt"
	"os"

	"busline/internal/config"
	"busline/internal/mylogger"
	schedulingservice "busline/internal/scheduling-service"
	ticketingservice "busline/internal/ticketing-service"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: app <scheduling-service|ticketing-service>")
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	mylog, err := mylogger.New(cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "scheduling-service":
		err = schedulingservice.Execute(ctx, mylog, cfg)
	case "ticketing-service":
		err = ticketingservice.Execute(ctx, mylog, cfg)
	default:
		fmt.Fprintln(os.Stderr, "unknown service:", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		os.Exit(1)
	}
}
