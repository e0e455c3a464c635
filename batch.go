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

import "slices"

// IndexRequest is a single document waiting to be written to Index.
type IndexRequest struct {
	Index string

	// DocumentID holds an optional document _id. If empty, Elasticsearch
	// generates one.
	DocumentID string

	Body []byte
}

// BulkBatch is an ordered batch of pending index requests. The order in
// which requests are added is the order in which they are sent.
//
// BulkBatch is not safe for concurrent use.
type BulkBatch struct {
	requests []IndexRequest
}

// Add appends req to the batch.
func (b *BulkBatch) Add(req IndexRequest) {
	b.requests = append(b.requests, req)
}

// Len returns the number of pending requests.
func (b *BulkBatch) Len() int {
	return len(b.requests)
}

// Requests returns the pending requests. The returned slice must not be
// modified.
func (b *BulkBatch) Requests() []IndexRequest {
	return slices.Clip(b.requests)
}

// DrainAndReset returns the pending requests and replaces them with an
// empty batch in the same step.
func (b *BulkBatch) DrainAndReset() []IndexRequest {
	requests := b.requests
	b.requests = nil
	return requests
}
