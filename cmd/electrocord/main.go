package main

import (
	"flag"
	"fmt"
	"os"

	"electrocord/internal"
	"electrocord/internal/app"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "electrocord: %v\n", err)
		os.Exit(1)
	}

	flagSet := flag.NewFlagSet("electrocord", flag.ExitOnError)
	apiBase := flagSet.String("api", cfg.APIBase, "backend API base URL")
	socketURL := flagSet.String("socket", cfg.SocketURL, "chat websocket URL")
	statePath := flagSet.String("state", cfg.StatePath, "local state database path")
	email := flagSet.String("email", cfg.Email, "default email for the login prompt")
	logPath := flagSet.String("log", cfg.LogPath, "debug log file (empty disables logging)")
	showVersion := flagSet.Bool("version", false, "print version and exit")
	_ = flagSet.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("electrocord v%s\n", internal.Version)
		return
	}

	cfg.APIBase = *apiBase
	cfg.SocketURL = *socketURL
	cfg.StatePath = *statePath
	cfg.Email = *email
	cfg.LogPath = *logPath

	if err := app.RunClient(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "electrocord: %v\n", err)
		os.Exit(1)
	}
}
