// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package cmd

import (
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/criteo-forks/es-init/common"
	"github.com/criteo-forks/es-init/provisioner"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type ProvisionCmd struct {
	Host               string `default:"localhost" env:"ELASTIC_SEARCH_HOST" help:"Elasticsearch domain host"`
	Port               int    `default:"443" env:"ELASTIC_SEARCH_PORT" help:"Elasticsearch domain port"`
	Scheme             string `default:"https" env:"ELASTIC_SEARCH_SCHEME" enum:"http,https" help:"Elasticsearch domain scheme"`
	ClusterName        string `default:"newtech-search" env:"ELASTIC_SEARCH_CLUSTER" help:"Cluster name, the domain must report <account id>:<cluster name>"`
	Region             string `default:"eu-west-2" env:"ELASTIC_SEARCH_AWS_REGION" help:"AWS region used to sign requests"`
	InsecureSkipVerify bool   `env:"ELASTIC_SEARCH_INSECURE_SKIP_VERIFY" help:"Skip TLS certificate verification, for self-signed domain certificates only"`

	PipelineName     string `default:"pnc-pipeline" env:"ELASTIC_SEARCH_PIPELINE" help:"Ingest pipeline to provision"`
	PipelineTemplate string `default:"./templates/offender-pipeline.json" env:"ELASTIC_SEARCH_PIPELINE_TEMPLATE" help:"Ingest pipeline json definition"`
	IndexName        string `default:"offender" env:"ELASTIC_SEARCH_INDEX" help:"Index to provision"`
	IndexTemplate    string `default:"./templates/offender-index.json" env:"ELASTIC_SEARCH_INDEX_TEMPLATE" help:"Index json definition, settings.index is overwritten with the computed shard count"`

	ConsulApi     string `env:"CONSUL_HTTP_ADDR" help:"Consul agent to resolve the domain endpoint from"`
	ConsulService string `env:"ELASTIC_SEARCH_CONSUL_SERVICE" help:"Consul service of the domain, overrides host and port"`

	Pushgateway string `env:"PROMETHEUS_PUSHGATEWAY" help:"Prometheus pushgateway receiving the run metrics"`

	LogLevel string `default:"info" env:"LOG_LEVEL" help:"Log level"`
	LogJson  bool   `env:"LOG_JSON" help:"Log as json"`

	result provisioner.ExitCode
}

// ExitCode is the code the process must exit with after Run.
func (r *ProvisionCmd) ExitCode() int {
	return int(r.result)
}

func (r *ProvisionCmd) Config() *common.Config {
	return &common.Config{
		Host:               r.Host,
		Port:               r.Port,
		Scheme:             r.Scheme,
		ClusterName:        r.ClusterName,
		Region:             r.Region,
		InsecureSkipVerify: r.InsecureSkipVerify,

		PipelineName:         r.PipelineName,
		PipelineTemplatePath: r.PipelineTemplate,
		IndexName:            r.IndexName,
		IndexTemplatePath:    r.IndexTemplate,

		ConsulApi:     r.ConsulApi,
		ConsulService: r.ConsulService,

		PushgatewayURL: r.Pushgateway,
	}
}

func (r *ProvisionCmd) Run() error {
	r.result = provisioner.ExitFailure
	if err := setupLogging(r.LogLevel, r.LogJson, uuid.New().String()); err != nil {
		return err
	}

	config := r.Config()
	r.result = execute(config, func() (*credentials.Credentials, string, error) {
		identity, err := common.NewAWSIdentity(config.Region)
		if err != nil {
			return nil, "", err
		}
		return identity.Credentials, identity.AccountID, nil
	})
	log.Info("Exiting with code ", int(r.result), " (", r.result, ")")

	if config.PushgatewayURL != "" {
		if err := common.PushMetrics(config.PushgatewayURL, config.ClusterName); err != nil {
			log.Warn(err)
		}
	}
	return nil
}

type identityFunc func() (*credentials.Credentials, string, error)

// execute runs the provisioning and collapses every failure into
// ExitFailure after logging it.
func execute(config *common.Config, identity identityFunc) provisioner.ExitCode {
	code, err := provision(config, identity)
	if err != nil {
		kind := provisioner.Kind(err)
		common.ErrorsCount.WithLabelValues(kind).Inc()
		switch kind {
		case "connection":
			log.Error("ERROR: ES Connection Failed: ", err)
		case "pipeline":
			log.Error("ERROR: ES Pipeline Creation Failed: ", err)
		case "index":
			log.Error("ERROR: ES Index Creation Failed: ", err)
		default:
			log.Error("Unhandled error occurred: ", err)
		}
		code = provisioner.ExitFailure
	}
	common.ExitCode.Set(float64(code))
	return code
}

func provision(config *common.Config, identity identityFunc) (provisioner.ExitCode, error) {
	if err := config.Validate(); err != nil {
		return provisioner.ExitFailure, err
	}
	if err := config.ApplyConsulDiscovery(); err != nil {
		return provisioner.ExitFailure, &provisioner.ConnectionError{Err: err}
	}
	creds, accountID, err := identity()
	if err != nil {
		return provisioner.ExitFailure, &provisioner.ConnectionError{Err: err}
	}
	return provisioner.Run(config, creds, accountID)
}
