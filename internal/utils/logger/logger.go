// Package logger provides a global logger for the application
package logger

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Init configures the global zerolog logger: console output on stderr,
// stack marshaling for wrapped errors, and a log level derived from the
// ENVIRONMENT variable (dev/test enable trace, anything else info).
// A .env file is loaded first when present.
func Init() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()

	environment := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if environment == "" {
		environment = "prod"
	}

	switch environment {
	case "dev", "test":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "prod":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		log.Warn().Str("environment", environment).Msg("unknown environment, defaulting to info level")
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
