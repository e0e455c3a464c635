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
	"net/http"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elastic/go-bulkclient"
	"github.com/elastic/go-bulkclient/bulkclienttest"
)

func BenchmarkClient(b *testing.B) {
	for name, level := range map[string]int{
		"NoCompression":      gzip.NoCompression,
		"BestSpeed":          gzip.BestSpeed,
		"DefaultCompression": gzip.DefaultCompression,
		"BestCompression":    gzip.BestCompression,
	} {
		b.Run(name, func(b *testing.B) {
			benchmarkClient(b, bulkclient.Config{CompressionLevel: level})
		})
	}
}

func BenchmarkClientDocumentErrors(b *testing.B) {
	addr := bulkclienttest.NewMockElasticsearch(b, func(w http.ResponseWriter, r *http.Request) {
		_, result := bulkclienttest.DecodeBulkRequest(r)
		for i, item := range result.Items {
			itemResp := item["index"]
			itemResp.Status = http.StatusBadRequest
			itemResp.Error.Type = "error_type"
			itemResp.Error.Reason = "error_reason_" + strconv.Itoa(i%2) + ". Preview of field's value: 'abc def ghi'"
			item["index"] = itemResp
		}
		json.NewEncoder(w).Encode(result)
	})
	client, err := bulkclient.New(bulkclient.Config{
		Addresses:  []string{addr},
		Serializer: bulkclient.LogStashSerializer{},
	})
	require.NoError(b, err)
	defer client.Close()
	runBenchmark(b, client, 500)
}

func benchmarkClient(b *testing.B, cfg bulkclient.Config) {
	var indexed int64
	addr := bulkclienttest.NewMockElasticsearch(b, func(w http.ResponseWriter, r *http.Request) {
		_, result := bulkclienttest.DecodeBulkRequest(r)
		atomic.AddInt64(&indexed, int64(len(result.Items)))
		json.NewEncoder(w).Encode(result)
	})
	cfg.Addresses = []string{addr}
	cfg.Serializer = bulkclient.LogStashSerializer{}
	client, err := bulkclient.New(cfg)
	require.NoError(b, err)
	defer client.Close()

	runBenchmark(b, client, 500)
	assert.Equal(b, int64(b.N), atomic.LoadInt64(&indexed))
}

func runBenchmark(b *testing.B, client *bulkclient.Client, batchSize int) {
	ev := bulkclient.Event{
		Headers: map[string]string{
			bulkclient.TimestampHeader: strconv.FormatInt(time.Now().UnixMilli(), 10),
			"host":                     "benchmark",
			"type":                     "logs",
		},
		Body: []byte(`{"message":"the quick brown fox jumps over the lazy dog"}`),
	}
	namer := bulkclient.TimeBasedIndexNameBuilder{Prefix: "logs-foo-testing"}
	b.SetBytes(int64(len(ev.Body)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := client.AddEvent(ev, namer, "log", 0); err != nil {
			b.Fatal(err)
		}
		if client.BatchLen() >= batchSize {
			if _, err := client.Execute(context.Background()); err != nil {
				b.Fatal(err)
			}
		}
	}
	if _, err := client.Execute(context.Background()); err != nil {
		b.Fatal(err)
	}
}
