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
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimestampHeader is the event header holding the event time in
// milliseconds since the Unix epoch.
const TimestampHeader = "timestamp"

// TimestampFormat holds the time format for formatting timestamps according to
// Elasticsearch's strict_date_optional_time date format, which includes a fractional
// seconds component.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Event is a single record to be written to the cluster.
type Event struct {
	Headers map[string]string
	Body    []byte
}

// Timestamp returns the time held in the event's TimestampHeader, and
// whether the header was present and valid.
func (e Event) Timestamp() (time.Time, bool) {
	v, ok := e.Headers[TimestampHeader]
	if !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

// sortedHeaderKeys returns the header names in lexical order, so that
// documents are encoded deterministically.
func (e Event) sortedHeaderKeys() []string {
	keys := make([]string, 0, len(e.Headers))
	for k := range e.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
