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
	"bytes"
	"encoding/json"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.elastic.co/fastjson"
)

// ContentBuilder holds a partially built JSON document. A new builder has
// its root object opened; fields are appended with Field, RawField and
// StartObject/EndObject. The root object is closed by the Client once the
// EventSerializer returns the builder.
type ContentBuilder struct {
	w fastjson.Writer
	// first records, per open object, whether no field has been written yet.
	first []bool
}

// NewContentBuilder returns a ContentBuilder with the root object opened.
func NewContentBuilder() *ContentBuilder {
	b := &ContentBuilder{}
	b.w.RawByte('{')
	b.first = append(b.first, true)
	return b
}

// Field appends a string field to the innermost open object.
func (b *ContentBuilder) Field(name, value string) *ContentBuilder {
	b.fieldName(name)
	b.w.String(value)
	return b
}

// RawField appends a field whose value is already encoded as JSON.
func (b *ContentBuilder) RawField(name string, value []byte) *ContentBuilder {
	b.fieldName(name)
	b.w.RawBytes(value)
	return b
}

// TimeField appends a field holding t formatted as an Elasticsearch
// strict_date_optional_time value, in UTC.
func (b *ContentBuilder) TimeField(name string, t time.Time) *ContentBuilder {
	return b.Field(name, t.UTC().Format(TimestampFormat))
}

// BodyField appends body as a field. Bodies which are JSON objects are
// embedded as compact JSON; anything else is encoded as a string.
func (b *ContentBuilder) BodyField(name string, body []byte) *ContentBuilder {
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		if compacted, err := compactJSON(trimmed); err == nil {
			return b.RawField(name, compacted)
		}
	}
	return b.Field(name, string(body))
}

// StartObject opens a nested object field.
func (b *ContentBuilder) StartObject(name string) *ContentBuilder {
	b.fieldName(name)
	b.w.RawByte('{')
	b.first = append(b.first, true)
	return b
}

// EndObject closes the innermost open object. Calling EndObject when no
// object is open has no effect.
func (b *ContentBuilder) EndObject() *ContentBuilder {
	if len(b.first) == 0 {
		return b
	}
	b.w.RawByte('}')
	b.first = b.first[:len(b.first)-1]
	return b
}

// Depth returns the number of objects which are still open.
func (b *ContentBuilder) Depth() int {
	return len(b.first)
}

// Bytes returns the encoded document. The document is only valid JSON once
// Depth returns zero.
func (b *ContentBuilder) Bytes() []byte {
	return b.w.Bytes()
}

func (b *ContentBuilder) fieldName(name string) {
	last := len(b.first) - 1
	if !b.first[last] {
		b.w.RawByte(',')
	}
	b.first[last] = false
	b.w.String(name)
	b.w.RawByte(':')
}

// compactJSON returns body with insignificant whitespace removed, so that
// it occupies a single line of a bulk request. Bodies which are already on
// one line are only validated.
func compactJSON(body []byte) ([]byte, error) {
	if bytes.IndexByte(body, '\n') < 0 {
		if !jsoniter.Valid(body) {
			return nil, errInvalidJSON
		}
		return body, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// finish closes the root object and returns the document.
func (b *ContentBuilder) finish() ([]byte, error) {
	b.EndObject()
	if b.Depth() != 0 {
		return nil, errors.New("document has unclosed objects")
	}
	return b.Bytes(), nil
}

// EventSerializer turns an event into a document. The returned builder must
// have its root object left open.
type EventSerializer interface {
	ContentBuilder(Event) (*ContentBuilder, error)
}

// EventSerializerFunc is a function which implements EventSerializer.
type EventSerializerFunc func(Event) (*ContentBuilder, error)

// ContentBuilder calls f(ev).
func (f EventSerializerFunc) ContentBuilder(ev Event) (*ContentBuilder, error) {
	return f(ev)
}

// IndexRequestFactory builds complete index requests, as an alternative
// to an EventSerializer. index is the name chosen by the IndexNameBuilder;
// if the returned request has no Index set, index is used.
type IndexRequestFactory interface {
	NewIndexRequest(index, indexType string, ev Event) (IndexRequest, error)
}

// IndexRequestFactoryFunc is a function which implements IndexRequestFactory.
type IndexRequestFactoryFunc func(index, indexType string, ev Event) (IndexRequest, error)

// NewIndexRequest calls f(index, indexType, ev).
func (f IndexRequestFactoryFunc) NewIndexRequest(index, indexType string, ev Event) (IndexRequest, error) {
	return f(index, indexType, ev)
}

// DynamicSerializer writes the event body to a "body" field, and each
// header to a field of the same name.
type DynamicSerializer struct{}

// ContentBuilder implements EventSerializer.
func (DynamicSerializer) ContentBuilder(ev Event) (*ContentBuilder, error) {
	b := NewContentBuilder()
	b.BodyField("body", ev.Body)
	for _, k := range ev.sortedHeaderKeys() {
		b.Field(k, ev.Headers[k])
	}
	return b, nil
}

// LogStashSerializer writes events in the Logstash v0 event layout:
//
//	@message, @timestamp, @source, @type, @source_host, @source_path, @fields
//
// @timestamp is taken from TimestampHeader, and the well-known headers
// "source", "type", "host" and "src_path" are mapped to their @ fields.
// All headers are also written to @fields.
type LogStashSerializer struct{}

// ContentBuilder implements EventSerializer.
func (LogStashSerializer) ContentBuilder(ev Event) (*ContentBuilder, error) {
	b := NewContentBuilder()
	b.BodyField("@message", ev.Body)
	if ts, ok := ev.Timestamp(); ok {
		b.TimeField("@timestamp", ts)
	}
	for _, m := range [...]struct{ header, field string }{
		{"source", "@source"},
		{"type", "@type"},
		{"host", "@source_host"},
		{"src_path", "@source_path"},
	} {
		if v, ok := ev.Headers[m.header]; ok {
			b.Field(m.field, v)
		}
	}
	b.StartObject("@fields")
	for _, k := range ev.sortedHeaderKeys() {
		b.Field(k, ev.Headers[k])
	}
	b.EndObject()
	return b, nil
}
