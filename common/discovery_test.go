// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package common

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConsul serves /v1/health/service/<name> from a static table.
func fakeConsul(t *testing.T, services map[string]string) string {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/v1/health/service/")
		if r.URL.Query().Get("passing") == "" {
			t.Errorf("expected a passing-only query, got %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Consul-Index", "1")
		body, ok := services[name]
		if !ok {
			body = "[]"
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestResolveEndpointFromConsul(t *testing.T) {
	target := fakeConsul(t, map[string]string{
		"newtech-search": `[{"Node":{"Node":"es-1","Address":"10.0.0.1","Datacenter":"dc1"},"Service":{"Service":"newtech-search","Address":"10.0.1.1","Port":9243}}]`,
		"node-address":   `[{"Node":{"Node":"es-2","Address":"10.0.0.2","Datacenter":"dc1"},"Service":{"Service":"node-address","Address":"","Port":9200}}]`,
	})
	consul, err := NewClient(target)
	require.NoError(t, err)

	endpoint, err := ResolveEndpointFromConsul(consul, "newtech-search")
	require.NoError(t, err)
	assert.Equal(t, Endpoint{Host: "10.0.1.1", Port: 9243}, endpoint)
	assert.Equal(t, "10.0.1.1:9243", endpoint.String())

	endpoint, err = ResolveEndpointFromConsul(consul, "node-address")
	require.NoError(t, err)
	assert.Equal(t, Endpoint{Host: "10.0.0.2", Port: 9200}, endpoint)

	_, err = ResolveEndpointFromConsul(consul, "unknown")
	assert.Error(t, err)
}

func TestApplyConsulDiscovery(t *testing.T) {
	t.Run("should keep host and port when disabled", func(t *testing.T) {
		c := validConfig()
		require.NoError(t, c.ApplyConsulDiscovery())
		assert.Equal(t, "search-newtech.eu-west-2.es.amazonaws.com", c.Host)
		assert.Equal(t, 443, c.Port)
	})

	t.Run("should override host and port", func(t *testing.T) {
		c := validConfig()
		c.ConsulApi = fakeConsul(t, map[string]string{
			"newtech-search": `[{"Node":{"Node":"es-1","Address":"10.0.0.1"},"Service":{"Address":"10.0.1.1","Port":9243}}]`,
		})
		c.ConsulService = "newtech-search"
		require.NoError(t, c.ApplyConsulDiscovery())
		assert.Equal(t, "https://10.0.1.1:9243", c.Address())
	})

	t.Run("should fail when the service has no instance", func(t *testing.T) {
		c := validConfig()
		c.ConsulApi = fakeConsul(t, nil)
		c.ConsulService = "newtech-search"
		assert.Error(t, c.ApplyConsulDiscovery())
	})
}
