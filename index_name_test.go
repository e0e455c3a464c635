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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/elastic/go-bulkclient"
)

func TestSimpleIndexNameBuilder(t *testing.T) {
	b := bulkclient.SimpleIndexNameBuilder{Name: "logs"}
	assert.Equal(t, "logs", b.IndexName(bulkclient.Event{}))
}

func TestTimeBasedIndexNameBuilder(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 3, 9, 23, 0, 0, 0, time.FixedZone("x", -3600)) }

	b := bulkclient.TimeBasedIndexNameBuilder{Prefix: "flume", Now: now}
	assert.Equal(t, "flume-2024-03-10", b.IndexName(bulkclient.Event{}))
	assert.Equal(t, "flume-2023-11-14", b.IndexName(bulkclient.Event{
		Headers: map[string]string{bulkclient.TimestampHeader: "1700000000123"},
	}))
	assert.Equal(t, "flume-2024-03-10", b.IndexName(bulkclient.Event{
		Headers: map[string]string{bulkclient.TimestampHeader: "not-a-number"},
	}))

	b.Layout = "2006.01"
	assert.Equal(t, "flume-2024.03", b.IndexName(bulkclient.Event{}))
}

func TestIndexNameBuilderFunc(t *testing.T) {
	b := bulkclient.IndexNameBuilderFunc(func(ev bulkclient.Event) string {
		return "logs-" + ev.Headers["service"]
	})
	assert.Equal(t, "logs-api", b.IndexName(bulkclient.Event{Headers: map[string]string{"service": "api"}}))
}
