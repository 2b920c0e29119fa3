// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package cmd

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// runIDHook stamps every entry with the id of the current run.
type runIDHook struct {
	runID string
}

func (h runIDHook) Levels() []log.Level {
	return log.AllLevels
}

func (h runIDHook) Fire(entry *log.Entry) error {
	entry.Data["run_id"] = h.runID
	return nil
}

func setupLogging(level string, asJson bool, runID string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "Invalid log level %s", level)
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stdout)
	if asJson {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.AddHook(runIDHook{runID: runID})
	return nil
}
