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

// Package bulkclienttest provides a mock Elasticsearch cluster for testing
// code which uses bulkclient.
package bulkclienttest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/klauspost/compress/gzip"
)

// BulkAction holds a decoded bulk request action line.
type BulkAction struct {
	Action     string
	Index      string `json:"_index"`
	DocumentID string `json:"_id"`
}

// DecodeBulkRequest decodes a /_bulk request's body, returning the decoded documents and a response body.
func DecodeBulkRequest(r *http.Request) ([][]byte, esutil.BulkIndexerResponse) {
	docs, _, result := DecodeBulkRequestWithActions(r)
	return docs, result
}

// DecodeBulkRequestWithActions decodes a /_bulk request's body, returning the decoded documents,
// their action lines, and a response body in which every item was created.
func DecodeBulkRequestWithActions(r *http.Request) ([][]byte, []BulkAction, esutil.BulkIndexerResponse) {
	body := r.Body
	switch r.Header.Get("Content-Encoding") {
	case "gzip":
		r, err := gzip.NewReader(body)
		if err != nil {
			panic(err)
		}
		defer r.Close()
		body = r
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var indexed [][]byte
	var actions []BulkAction
	var result esutil.BulkIndexerResponse
	for scanner.Scan() {
		action := make(map[string]BulkAction)
		if err := json.NewDecoder(strings.NewReader(scanner.Text())).Decode(&action); err != nil {
			panic(err)
		}
		var actionType string
		var meta BulkAction
		for actionType, meta = range action {
		}
		meta.Action = actionType
		actions = append(actions, meta)
		if !scanner.Scan() {
			panic("expected source")
		}

		doc := append([]byte{}, scanner.Bytes()...)
		if !json.Valid(doc) {
			panic(fmt.Errorf("invalid JSON: %s", doc))
		}
		indexed = append(indexed, doc)

		item := esutil.BulkIndexerResponseItem{Index: meta.Index, Status: http.StatusCreated}
		result.Items = append(result.Items, map[string]esutil.BulkIndexerResponseItem{actionType: item})
	}
	return indexed, actions, result
}

// NewMockElasticsearch starts an httptest.Server which sends /_bulk requests
// to bulkHandler, and returns its address in host:port form, suitable for
// bulkclient.Config.Addresses. The server will be closed via t.Cleanup.
func NewMockElasticsearch(t testing.TB, bulkHandler http.HandlerFunc) string {
	mux := http.NewServeMux()
	HandleBulk(mux, bulkHandler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("failed to parse mock server URL: %v", err)
	}
	return u.Host
}

// HandleBulk registers bulkHandler with mux for handling /_bulk requests,
// wrapping bulkHandler to conform with go-elasticsearch product checking.
func HandleBulk(mux *http.ServeMux, bulkHandler http.HandlerFunc) {
	mux.HandleFunc("/_bulk", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		bulkHandler.ServeHTTP(w, r)
	})
}
