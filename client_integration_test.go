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

package bulkclient_test

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elastic/go-bulkclient"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

func TestClientIntegration(t *testing.T) {
	switch strings.ToLower(os.Getenv("INTEGRATION_TESTS")) {
	case "1", "true":
	default:
		t.Skip("Skipping integration test, export INTEGRATION_TESTS=1 to run")
	}
	addr := os.Getenv("ELASTICSEARCH_ADDRESS")
	if addr == "" {
		addr = "localhost:9200"
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{"http://" + addr}})
	require.NoError(t, err)

	index := "bulkclient-integration-testing"
	deleteIndex := func() {
		resp, err := esapi.IndicesDeleteRequest{Index: []string{index}}.Do(context.Background(), es)
		require.NoError(t, err)
		defer resp.Body.Close()
	}
	deleteIndex()
	defer deleteIndex()

	client, err := bulkclient.New(bulkclient.Config{
		Addresses:  []string{addr},
		Serializer: bulkclient.LogStashSerializer{},
	})
	require.NoError(t, err)
	defer client.Close()

	const N = 100
	namer := bulkclient.SimpleIndexNameBuilder{Name: index}
	for i := 0; i < N; i++ {
		err := client.AddEvent(bulkclient.Event{Body: []byte(`{"n":1}`)}, namer, "log", 0)
		require.NoError(t, err)
	}
	stat, err := client.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(N), stat.Indexed)

	// Check that docs are indexed.
	resp, err := esapi.IndicesRefreshRequest{Index: []string{index}}.Do(context.Background(), es)
	require.NoError(t, err)
	resp.Body.Close()

	var result struct {
		Count int
	}
	resp, err = esapi.CountRequest{Index: []string{index}}.Do(context.Background(), es)
	require.NoError(t, err)
	defer resp.Body.Close()
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)
	assert.Equal(t, N, result.Count)
}
