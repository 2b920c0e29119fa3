// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package provisioner

import (
	"io/ioutil"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/criteo-forks/es-init/common"
	elasticsearch7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/valyala/fastjson"
)

const (
	statusRed = "red"

	// Two primaries per data node; a single node cluster cannot hold replicas.
	shardsPerDataNode = 2
	singleNodeShards  = shardsPerDataNode
)

// ClusterHealth is the part of the cluster health response we rely on.
type ClusterHealth struct {
	ClusterName       string
	Status            string
	NumberOfNodes     int
	NumberOfDataNodes int
	ActiveShards      int
}

// Connection is a signed client bound to the expected cluster.
type Connection struct {
	clusterName string
	client      *elasticsearch7.Client
}

// Connect opens a signed connection and checks the cluster is the expected
// one and not red.
func Connect(config *common.Config, creds *credentials.Credentials, accountID string) (*Connection, error) {
	client, err := initEsClient(config, creds)
	if err != nil {
		return nil, connectionErrorf(err, "Failed to init elasticsearch client for %s", config.Address())
	}
	conn := &Connection{
		clusterName: config.ExpectedClusterName(accountID),
		client:      client,
	}

	health, err := conn.clusterHealth()
	if err != nil {
		return nil, connectionErrorf(err, "Failed to get health of cluster at %s", config.Address())
	}
	if health.ClusterName != conn.clusterName {
		return nil, connectionErrorf(nil, "Incorrect cluster name. Expected %s, but got %s", conn.clusterName, health.ClusterName)
	}
	if health.Status == statusRed {
		return nil, connectionErrorf(nil, "Cluster %s is unhealthy. Current status: %s", health.ClusterName, health.Status)
	}

	log.WithFields(log.Fields{
		"status":     health.Status,
		"nodes":      health.NumberOfNodes,
		"data_nodes": health.NumberOfDataNodes,
		"shards":     health.ActiveShards,
	}).Info("SUCCESS: Connected to : ", health.ClusterName)
	return conn, nil
}

func initEsClient(config *common.Config, creds *credentials.Credentials) (*elasticsearch7.Client, error) {
	if config.InsecureSkipVerify {
		log.Warn("TLS certificate verification is disabled for ", config.Address())
	}
	cfg := elasticsearch7.Config{
		Addresses: []string{
			config.Address(),
		},
		Transport:    common.NewSigningTransport(creds, config.Region, config.InsecureSkipVerify),
		DisableRetry: true,
	}
	return elasticsearch7.NewClient(cfg)
}

// ComputeShardCount returns two primaries per data node.
func (c *Connection) ComputeShardCount() (int, error) {
	health, err := c.clusterHealth()
	if err != nil {
		return 0, connectionErrorf(err, "Failed to calculate number of data nodes")
	}
	if health.NumberOfDataNodes < 1 {
		return 0, connectionErrorf(nil, "Cluster %s reports %d data nodes", health.ClusterName, health.NumberOfDataNodes)
	}
	return health.NumberOfDataNodes * shardsPerDataNode, nil
}

func (c *Connection) clusterHealth() (ClusterHealth, error) {
	start := time.Now()
	res, err := c.client.Cluster.Health()
	common.ObserveLatency("cluster_health", start)
	if err != nil {
		return ClusterHealth{}, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return ClusterHealth{}, errors.Errorf("Cluster health response error: %s", res.String())
	}

	v, err := parseBody(res)
	if err != nil {
		return ClusterHealth{}, errors.Wrap(err, "Error parsing the cluster health response body")
	}
	if !v.Exists("cluster_name") || !v.Exists("status") {
		return ClusterHealth{}, errors.New("Cluster health response doesn't contain cluster_name or status field")
	}
	return ClusterHealth{
		ClusterName:       string(v.GetStringBytes("cluster_name")),
		Status:            string(v.GetStringBytes("status")),
		NumberOfNodes:     v.GetInt("number_of_nodes"),
		NumberOfDataNodes: v.GetInt("number_of_data_nodes"),
		ActiveShards:      v.GetInt("active_shards"),
	}, nil
}

func parseBody(res *esapi.Response) (*fastjson.Value, error) {
	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	var p fastjson.Parser
	return p.ParseBytes(body)
}

// checkAcknowledged fails unless the write response carries acknowledged: true.
func checkAcknowledged(res *esapi.Response) error {
	v, err := parseBody(res)
	if err != nil {
		return errors.Wrap(err, "Error parsing the acknowledgement")
	}
	if !v.GetBool("acknowledged") {
		return errors.Errorf("Write was not acknowledged. Response: %s", v)
	}
	return nil
}
