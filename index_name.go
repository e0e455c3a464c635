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

import "time"

// DefaultIndexDateLayout is the date layout used by TimeBasedIndexNameBuilder
// when none is configured.
const DefaultIndexDateLayout = "2006-01-02"

// IndexNameBuilder chooses the index an event is written to.
type IndexNameBuilder interface {
	IndexName(Event) string
}

// IndexNameBuilderFunc is a function which implements IndexNameBuilder.
type IndexNameBuilderFunc func(Event) string

// IndexName calls f(ev).
func (f IndexNameBuilderFunc) IndexName(ev Event) string {
	return f(ev)
}

// SimpleIndexNameBuilder writes every event to the same index.
type SimpleIndexNameBuilder struct {
	Name string
}

// IndexName implements IndexNameBuilder.
func (b SimpleIndexNameBuilder) IndexName(Event) string {
	return b.Name
}

// TimeBasedIndexNameBuilder writes events to daily (or otherwise rolled)
// indices named "<Prefix>-<date>". The date is taken from the event's
// TimestampHeader, falling back to the current time, and is formatted in
// UTC with Layout.
type TimeBasedIndexNameBuilder struct {
	Prefix string

	// Layout holds the time layout for the date suffix.
	//
	// If Layout is empty, DefaultIndexDateLayout is used.
	Layout string

	// Now is used to obtain the current time. If nil, time.Now is used.
	Now func() time.Time
}

// IndexName implements IndexNameBuilder.
func (b TimeBasedIndexNameBuilder) IndexName(ev Event) string {
	ts, ok := ev.Timestamp()
	if !ok {
		if b.Now != nil {
			ts = b.Now()
		} else {
			ts = time.Now()
		}
	}
	layout := b.Layout
	if layout == "" {
		layout = DefaultIndexDateLayout
	}
	return b.Prefix + "-" + ts.UTC().Format(layout)
}
