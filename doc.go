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

// Package bulkclient provides a synchronous, batching client for writing
// documents into an Elasticsearch cluster with the _bulk API.
//
// A Client owns a single connection handle to the cluster and a single
// in-memory batch. Events are converted into index requests with AddEvent,
// and the accumulated batch is sent as one bulk request with Execute. The
// batch is always emptied by Execute, whether or not the request succeeded:
// callers that need to retry a failed batch must keep their own copy of the
// events before calling Execute.
//
// A Client is not safe for concurrent use. It is intended to be driven by a
// single processing loop.
package bulkclient
