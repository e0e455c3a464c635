// Licensed to Elasticsearch B.V. under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. Elasticsearch B.V. licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package bulkclient

import (
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"go.elastic.co/apm/module/apmelasticsearch/v2"
)

// connection is the long-lived handle to a set of cluster members.
type connection struct {
	client    *elasticsearch.Client
	transport *http.Transport
	endpoints []Endpoint
}

func openConnection(endpoints []Endpoint, cfg Config) (*connection, error) {
	addresses := make([]string, len(endpoints))
	for i, endpoint := range endpoints {
		addresses[i] = endpoint.URL(cfg.Scheme)
	}

	transport := &http.Transport{}
	if defaultTransport, ok := http.DefaultTransport.(*http.Transport); ok {
		transport = defaultTransport.Clone()
	}
	var rt http.RoundTripper = transport
	if cfg.Tracer != nil {
		rt = apmelasticsearch.WrapRoundTripper(rt)
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Transport: rt,
		// Failed bulk requests are reported to the caller, never resent.
		DisableRetry: true,
	})
	if err != nil {
		transport.CloseIdleConnections()
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &connection{
		client:    client,
		transport: transport,
		endpoints: endpoints,
	}, nil
}

// Close releases the idle connections held by the handle. Requests in
// flight are not interrupted.
func (c *connection) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}
