package main

import (
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kontorlabs/kontor/cmd"
)

// main is the entry point of the application.
// It sets up logging based on the DEBUG_KONTOR environment variable,
// starts a goroutine to listen for interrupt signals, and executes the main command.
func main() {
	configureLogLevelFromEnv()

	stopChan := setupInterruptListener()
	go handleInterrupt(stopChan, func(msg string) { log.Error().Msg(msg) }, os.Exit)

	// Program entry point
	cmd.Execute()
}

// configureLogLevelFromEnv enables debug logging when the DEBUG_KONTOR
// environment variable is set to anything but "", "0", or "false";
// otherwise logging is disabled entirely.
func configureLogLevelFromEnv() {
	switch os.Getenv("DEBUG_KONTOR") {
	case "", "0", "false":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// setupInterruptListener registers for interrupt signals and returns the
// channel they are delivered on.
func setupInterruptListener() chan os.Signal {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt)
	return stopChan
}

// handleInterrupt blocks until a signal arrives, logs the shutdown message,
// and exits. The log and exit functions are injected so tests can observe
// the calls.
func handleInterrupt(stopChan chan os.Signal, logMsg func(string), exit func(int)) {
	<-stopChan
	logMsg("Interrupt signal received. Exiting...")
	exit(1)
}
