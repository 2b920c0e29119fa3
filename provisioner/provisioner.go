// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package provisioner

import (
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/criteo-forks/es-init/common"
	log "github.com/sirupsen/logrus"
)

// ExitCode tells the calling scheduler which load job to run next.
type ExitCode int

const (
	// ExitDeltaLoad: the index holds data, run the incremental job.
	ExitDeltaLoad ExitCode = 0
	// ExitFailure: provisioning failed.
	ExitFailure ExitCode = 1
	// ExitFullLoad: the index is new or empty, run the full reindex job.
	ExitFullLoad ExitCode = 2
)

func (e ExitCode) String() string {
	switch e {
	case ExitDeltaLoad:
		return "delta load"
	case ExitFullLoad:
		return "full load"
	default:
		return "failure"
	}
}

// Run connects to the cluster and provisions it. Any error leaves the exit
// code at ExitFailure.
func Run(config *common.Config, creds *credentials.Credentials, accountID string) (ExitCode, error) {
	conn, err := Connect(config, creds, accountID)
	if err != nil {
		return ExitFailure, err
	}
	return conn.Provision(config)
}

// Provision makes sure the pipeline and index exist and decides which load
// job should follow.
func (c *Connection) Provision(config *common.Config) (ExitCode, error) {
	pipelineFound, err := c.PipelineExists(config.PipelineName)
	if err != nil {
		return ExitFailure, err
	}
	if !pipelineFound {
		log.Info("Ingest Pipeline ", config.PipelineName, " not found. Creating...")
		if err := c.CreatePipeline(config.PipelineName, config.PipelineTemplatePath); err != nil {
			return ExitFailure, err
		}
	}

	indexFound, err := c.IndexExists(config.IndexName)
	if err != nil {
		return ExitFailure, err
	}
	if !indexFound {
		log.Info("Index: ", config.IndexName, " Not Found. Creating")
		shardCount, err := c.ComputeShardCount()
		if err != nil {
			return ExitFailure, err
		}
		if err := c.CreateIndex(config.IndexName, config.IndexTemplatePath, shardCount); err != nil {
			return ExitFailure, err
		}
		return ExitFullLoad, nil
	}

	hasDocuments, err := c.IndexHasDocuments(config.IndexName)
	if err != nil {
		return ExitFailure, err
	}
	if !hasDocuments {
		log.Info("Empty Index: ", config.IndexName, " Found. Run Full Index Job.")
		return ExitFullLoad, nil
	}
	log.Info("Index: ", config.IndexName, " Exists with Data. Run Delta Job.")
	return ExitDeltaLoad, nil
}
