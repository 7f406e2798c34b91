package cmd

import (
	"os"
	"strings"

	"jopacoin/config"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the configured level and format to the standard logger
func ConfigureLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
