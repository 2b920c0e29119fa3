// Copyright © 2018 Barthelemy Vessemont
// GNU General Public License version 3

package provisioner

import (
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/criteo-forks/es-init/common"
	"github.com/stretchr/testify/require"
)

const (
	testAccountID = "123456789012"
	testCluster   = "newtech-search"
	testPipeline  = "pnc-pipeline"
	testIndex     = "offender"
)

// fakeCluster answers the handful of endpoints the provisioner calls.
type fakeCluster struct {
	mu sync.Mutex

	clusterName   string
	status        string
	dataNodes     int
	pipelineFound bool
	indexFound    bool
	docCount      int
	brokenHealth  bool
	noAcknowledge bool
	failStats     bool

	calls        []string
	signatures   []string
	pipelineBody []byte
	indexBody    []byte
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{
		clusterName: testAccountID + ":" + testCluster,
		status:      "green",
		dataNodes:   3,
	}
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	f.signatures = append(f.signatures, r.Header.Get("Authorization"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Elastic-Product", "Elasticsearch")

	switch {
	case r.URL.Path == "/_cluster/health":
		if f.brokenHealth {
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		fmt.Fprintf(w, `{"cluster_name":%q,"status":%q,"number_of_nodes":%d,"number_of_data_nodes":%d,"active_shards":10}`,
			f.clusterName, f.status, f.dataNodes, f.dataNodes)

	case r.URL.Path == "/_ingest/pipeline/"+testPipeline && r.Method == http.MethodGet:
		if !f.pipelineFound {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{}`)
			return
		}
		fmt.Fprintf(w, `{%q:{"description":"existing","processors":[]}}`, testPipeline)

	case r.URL.Path == "/_ingest/pipeline/"+testPipeline && r.Method == http.MethodPut:
		f.pipelineBody, _ = ioutil.ReadAll(r.Body)
		f.pipelineFound = !f.noAcknowledge
		fmt.Fprintf(w, `{"acknowledged":%t}`, !f.noAcknowledge)

	case r.URL.Path == "/"+testIndex && r.Method == http.MethodHead:
		if !f.indexFound {
			w.WriteHeader(http.StatusNotFound)
		}

	case r.URL.Path == "/"+testIndex && r.Method == http.MethodPut:
		f.indexBody, _ = ioutil.ReadAll(r.Body)
		f.indexFound = !f.noAcknowledge
		fmt.Fprintf(w, `{"acknowledged":%t,"shards_acknowledged":%t,"index":%q}`, !f.noAcknowledge, !f.noAcknowledge, testIndex)

	case r.URL.Path == "/"+testIndex+"/_settings":
		fmt.Fprintf(w, `{%q:{"settings":{"index":{"number_of_shards":"6","number_of_replicas":"1"}}}}`, testIndex)

	case strings.HasPrefix(r.URL.Path, "/"+testIndex+"/_stats"):
		if f.failStats {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":"boom"}`)
			return
		}
		fmt.Fprintf(w, `{"_shards":{"total":6,"successful":6,"failed":0},"_all":{"primaries":{"docs":{"count":%d}},"total":{"docs":{"count":%d,"deleted":0}}}}`,
			f.docCount, f.docCount)

	default:
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"error":"unexpected %s %s"}`, r.Method, r.URL.Path)
	}
}

func (f *fakeCluster) recordedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeCluster) called(call string) bool {
	for _, c := range f.recordedCalls() {
		if c == call {
			return true
		}
	}
	return false
}

// startFakeCluster serves f over TLS and returns a config pointing at it.
func startFakeCluster(t *testing.T, f *fakeCluster) *common.Config {
	srv := httptest.NewTLSServer(f)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return &common.Config{
		Host:               host,
		Port:               port,
		Scheme:             "https",
		ClusterName:        testCluster,
		Region:             "eu-west-2",
		InsecureSkipVerify: true,

		PipelineName:         testPipeline,
		PipelineTemplatePath: "testdata/offender-pipeline.json",
		IndexName:            testIndex,
		IndexTemplatePath:    "testdata/offender-index.json",
	}
}

func testCredentials() *credentials.Credentials {
	return credentials.NewStaticCredentials("AKIDEXAMPLE", "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY", "session-token")
}

func connectFake(t *testing.T, f *fakeCluster) (*Connection, *common.Config) {
	config := startFakeCluster(t, f)
	conn, err := Connect(config, testCredentials(), testAccountID)
	require.NoError(t, err)
	return conn, config
}
