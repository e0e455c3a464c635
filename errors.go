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
	"errors"
	"fmt"
)

var (
	// ErrNotOpen is returned by Execute when the client has no open
	// connection to the cluster.
	ErrNotOpen = errors.New("client is not open")

	// ErrNoEndpoints is returned by Open when no cluster addresses have
	// been configured, and by Configure when the supplied host names hold
	// no addresses.
	ErrNoEndpoints = errors.New("no cluster addresses configured")

	// ErrNoBinding is returned when neither a Serializer nor a
	// RequestFactory has been configured.
	ErrNoBinding = errors.New("one of Serializer or RequestFactory must be set")

	// ErrAmbiguousBinding is returned when both a Serializer and a
	// RequestFactory have been configured.
	ErrAmbiguousBinding = errors.New("only one of Serializer or RequestFactory may be set")

	errMissingIndexName = errors.New("missing index name")
	errMissingBody      = errors.New("missing document body")
	errInvalidJSON      = errors.New("invalid JSON document")
)

// ConfigurationError is returned when the client configuration, such as
// an address list entry, is invalid.
type ConfigurationError struct {
	// Entry holds the offending configuration value, if any.
	Entry string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid configuration %q: %v", e.Entry, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// SerializationError is returned by AddEvent when an event could not be
// turned into a document. The event is not added to the batch.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to serialize event: %v", e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// TransportError is returned when a connection to the cluster could not be
// opened, or when a bulk request could not be completed.
type TransportError struct {
	// Op is the operation that failed, e.g. "open" or "bulk".
	Op string

	// StatusCode holds the HTTP status code of the response, or zero if
	// no response was received.
	StatusCode int

	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TooManyRequests reports whether the cluster rejected the request with
// 429 Too Many Requests.
func (e *TransportError) TooManyRequests() bool {
	return e.StatusCode == 429
}
