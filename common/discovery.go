// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package common

import (
	"github.com/hashicorp/consul/api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func NewClient(consulTarget string) (*api.Client, error) {
	consulConfig := api.DefaultConfig()
	consulConfig.Address = consulTarget
	consul, err := api.NewClient(consulConfig)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create consul client with target %s", consulTarget)
	}
	return consul, nil
}

// ResolveEndpointFromConsul returns the address of the first passing
// instance of serviceName.
func ResolveEndpointFromConsul(consul *api.Client, serviceName string) (Endpoint, error) {
	serviceEntries, _, err := consul.Health().Service(
		serviceName, "", true,
		&api.QueryOptions{AllowStale: true, RequireConsistent: false},
	)
	if err != nil {
		return Endpoint{}, errors.Wrapf(err, "Consul discovery failed for service %s", serviceName)
	}
	if len(serviceEntries) == 0 {
		return Endpoint{}, errors.Errorf("Consul service %s has no passing instance", serviceName)
	}

	entry := serviceEntries[0]
	addr := entry.Node.Address
	if entry.Service.Address != "" {
		addr = entry.Service.Address
	}
	log.Debug("Service discovered: ", entry.Node.Node, " (", addr, ":", entry.Service.Port, ")")

	return Endpoint{Host: addr, Port: entry.Service.Port}, nil
}

// ApplyConsulDiscovery overrides the configured host and port when consul
// discovery is enabled.
func (c *Config) ApplyConsulDiscovery() error {
	if !c.ConsulEnabled() {
		return nil
	}
	consul, err := NewClient(c.ConsulApi)
	if err != nil {
		return err
	}
	endpoint, err := ResolveEndpointFromConsul(consul, c.ConsulService)
	if err != nil {
		return err
	}
	log.Infof("Using %s discovered from consul service %s", endpoint, c.ConsulService)
	c.Host = endpoint.Host
	c.Port = endpoint.Port
	return nil
}
