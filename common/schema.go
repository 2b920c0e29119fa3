// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// Config holds every option the provisioner recognises. It is built once by
// the CLI and passed down; nothing reads the environment after that.
type Config struct {
	Host               string
	Port               int
	Scheme             string
	ClusterName        string
	Region             string
	InsecureSkipVerify bool

	PipelineName         string
	PipelineTemplatePath string
	IndexName            string
	IndexTemplatePath    string

	ConsulApi     string
	ConsulService string

	PushgatewayURL string
}

// Endpoint is the host:port the cluster client talks to.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Host, e.Port)
}

func (c *Config) Endpoint() Endpoint {
	return Endpoint{Host: c.Host, Port: c.Port}
}

// Address is the base URL handed to the elasticsearch client.
func (c *Config) Address() string {
	return fmt.Sprintf("%s://%s", c.Scheme, c.Endpoint())
}

// ExpectedClusterName is the name a managed cluster reports for this account.
func (c *Config) ExpectedClusterName(accountID string) string {
	return accountID + ":" + c.ClusterName
}

// ConsulEnabled reports whether the endpoint must be resolved through consul.
func (c *Config) ConsulEnabled() bool {
	return c.ConsulApi != "" && c.ConsulService != ""
}

func (c *Config) Validate() error {
	if c.Host == "" && !c.ConsulEnabled() {
		return errors.New("elasticsearch host is empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("elasticsearch port %d is out of range", c.Port)
	}
	if c.Scheme != "http" && c.Scheme != "https" {
		return errors.Errorf("unsupported scheme %q", c.Scheme)
	}
	required := []struct{ field, value string }{
		{"cluster name", c.ClusterName},
		{"region", c.Region},
		{"pipeline name", c.PipelineName},
		{"pipeline template", c.PipelineTemplatePath},
		{"index name", c.IndexName},
		{"index template", c.IndexTemplatePath},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.Errorf("%s is empty", r.field)
		}
	}
	return nil
}
