// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package provisioner

import (
	"bytes"
	"net/http"
	"time"

	"github.com/criteo-forks/es-init/common"
	log "github.com/sirupsen/logrus"
)

// PipelineExists reports whether the ingest pipeline is installed. A missing
// pipeline is false with a nil error.
func (c *Connection) PipelineExists(name string) (bool, error) {
	start := time.Now()
	res, err := c.client.Ingest.GetPipeline(
		c.client.Ingest.GetPipeline.WithPipelineID(name),
	)
	common.ObserveLatency("get_pipeline", start)
	if err != nil {
		return false, pipelineErrorf(err, "Failed to get pipeline %s", name)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.IsError() {
		return false, pipelineErrorf(nil, "Pipeline get for %s response error: %s", name, res.String())
	}

	log.Debug("Found pipeline: ", res.String())
	return true, nil
}

// CreatePipeline installs the pipeline read from templatePath.
func (c *Connection) CreatePipeline(name, templatePath string) error {
	body, err := readTemplate(templatePath)
	if err != nil {
		return pipelineErrorf(err, "Failed to load pipeline template")
	}

	start := time.Now()
	res, err := c.client.Ingest.PutPipeline(name, bytes.NewReader(body.MarshalTo(nil)))
	common.ObserveLatency("put_pipeline", start)
	if err != nil {
		return pipelineErrorf(err, "Failed to create pipeline %s", name)
	}
	defer res.Body.Close()

	if res.IsError() {
		return pipelineErrorf(nil, "Pipeline creation for %s response error: %s", name, res.String())
	}
	if err := checkAcknowledged(res); err != nil {
		return pipelineErrorf(err, "Failed to create pipeline %s", name)
	}

	common.CreatedCount.WithLabelValues("pipeline").Inc()
	log.Info("SUCCESS: Created Pipeline: ", name)
	return nil
}
