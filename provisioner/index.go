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

// IndexExists reports whether the index is present, logging its settings
// when it is. A missing index is false with a nil error.
func (c *Connection) IndexExists(name string) (bool, error) {
	start := time.Now()
	res, err := c.client.Indices.Exists([]string{name})
	common.ObserveLatency("index_exists", start)
	if err != nil {
		return false, indexErrorf(err, "Failed to check if index %s exist", name)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.IsError() {
		return false, indexErrorf(nil, "Index exist check for %s response error: %s", name, res.String())
	}

	if err := c.logIndexSettings(name); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Connection) logIndexSettings(name string) error {
	start := time.Now()
	res, err := c.client.Indices.GetSettings(
		c.client.Indices.GetSettings.WithIndex(name),
	)
	common.ObserveLatency("index_get_settings", start)
	if err != nil {
		return indexErrorf(err, "Failed to get settings of index %s", name)
	}
	defer res.Body.Close()

	if res.IsError() {
		return indexErrorf(nil, "Index settings for %s response error: %s", name, res.String())
	}
	log.Info(res.String())
	return nil
}

// IndexHasDocuments reports whether the index holds at least one document.
func (c *Connection) IndexHasDocuments(name string) (bool, error) {
	start := time.Now()
	res, err := c.client.Indices.Stats(
		c.client.Indices.Stats.WithIndex(name),
		c.client.Indices.Stats.WithMetric("docs"),
	)
	common.ObserveLatency("index_stats", start)
	if err != nil {
		return false, indexErrorf(err, "Failed to get stats of index %s", name)
	}
	defer res.Body.Close()

	if res.IsError() {
		return false, indexErrorf(nil, "Index stats for %s response error: %s", name, res.String())
	}

	v, err := parseBody(res)
	if err != nil {
		return false, indexErrorf(err, "Error parsing the stats response body of index %s", name)
	}
	if !v.Exists("_all", "total", "docs", "count") {
		return false, indexErrorf(nil, "Index stats response doesn't contain _all.total.docs.count field for %s", name)
	}
	count := v.GetInt64("_all", "total", "docs", "count")

	common.IndexDocumentsCount.Set(float64(count))
	log.Infof("Found: %d Documents in the %s Index", count, name)
	return count > 0, nil
}

// CreateIndex creates the index from templatePath with shardCount primaries.
func (c *Connection) CreateIndex(name, templatePath string, shardCount int) error {
	template, err := readTemplate(templatePath)
	if err != nil {
		return indexErrorf(err, "Failed to load index template")
	}
	body, err := RenderIndexTemplate(template, shardCount)
	if err != nil {
		return indexErrorf(err, "Index template %s", templatePath)
	}

	start := time.Now()
	res, err := c.client.Indices.Create(
		name,
		c.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	common.ObserveLatency("index_create", start)
	if err != nil {
		return indexErrorf(err, "Failed to create index %s", name)
	}
	defer res.Body.Close()

	if res.IsError() {
		return indexErrorf(nil, "Index creation for %s response error: %s", name, res.String())
	}
	if err := checkAcknowledged(res); err != nil {
		return indexErrorf(err, "Failed to create index %s", name)
	}

	common.IndexShards.Set(float64(shardCount))
	common.CreatedCount.WithLabelValues("index").Inc()
	log.Info("SUCCESS: Created Index: ", name)
	return nil
}
