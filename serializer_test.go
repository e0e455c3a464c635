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
	"github.com/stretchr/testify/require"

	"github.com/elastic/go-bulkclient"
)

func finishDocument(t testing.TB, b *bulkclient.ContentBuilder) string {
	t.Helper()
	require.Equal(t, 1, b.Depth(), "serializer must leave only the root object open")
	b.EndObject()
	require.Equal(t, 0, b.Depth())
	return string(b.Bytes())
}

func TestContentBuilder(t *testing.T) {
	b := bulkclient.NewContentBuilder()
	b.Field("a", `quote"d`).
		RawField("b", []byte(`[1,2]`)).
		StartObject("c").
		Field("d", "e").
		EndObject().
		TimeField("t", time.Date(2024, 1, 2, 3, 4, 5, 6_000_000, time.FixedZone("x", 3600)))
	assert.Equal(t,
		`{"a":"quote\"d","b":[1,2],"c":{"d":"e"},"t":"2024-01-02T02:04:05.006Z"}`,
		finishDocument(t, b),
	)

	// Extra EndObject calls are ignored.
	b.EndObject()
	assert.Equal(t, 0, b.Depth())
}

func TestContentBuilderBodyField(t *testing.T) {
	for name, tc := range map[string]struct {
		body     string
		expected string
	}{
		"json_object":            {body: ` {"msg":"hi"} `, expected: `{"body":{"msg":"hi"}}`},
		"multiline_json_object":  {body: "{\n  \"msg\": \"hi\",\n  \"n\": [1, 2]\n}\n", expected: `{"body":{"msg":"hi","n":[1,2]}}`},
		"plain_text":             {body: "hello world", expected: `{"body":"hello world"}`},
		"multiline_text":         {body: "line one\nline two", expected: `{"body":"line one\nline two"}`},
		"invalid_json":           {body: `{"msg":`, expected: `{"body":"{\"msg\":"}`},
		"multiline_invalid_json": {body: "{\n\"msg\":", expected: `{"body":"{\n\"msg\":"}`},
		"json_array":             {body: `[1]`, expected: `{"body":"[1]"}`},
		"empty":                  {body: "", expected: `{"body":""}`},
	} {
		t.Run(name, func(t *testing.T) {
			b := bulkclient.NewContentBuilder().BodyField("body", []byte(tc.body))
			doc := finishDocument(t, b)
			assert.Equal(t, tc.expected, doc)
			assert.NotContains(t, doc, "\n")
		})
	}
}

func TestDynamicSerializer(t *testing.T) {
	b, err := bulkclient.DynamicSerializer{}.ContentBuilder(bulkclient.Event{
		Headers: map[string]string{"host": "h1", "a": "b"},
		Body:    []byte("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"body":"hello","a":"b","host":"h1"}`, finishDocument(t, b))
}

func TestLogStashSerializer(t *testing.T) {
	b, err := bulkclient.LogStashSerializer{}.ContentBuilder(bulkclient.Event{
		Headers: map[string]string{
			"host":      "h1",
			"src_path":  "/var/log/app.log",
			"timestamp": "1700000000123",
		},
		Body: []byte("hi"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"@message": "hi",
		"@timestamp": "2023-11-14T22:13:20.123Z",
		"@source_host": "h1",
		"@source_path": "/var/log/app.log",
		"@fields": {"host": "h1", "src_path": "/var/log/app.log", "timestamp": "1700000000123"}
	}`, finishDocument(t, b))
}

func TestLogStashSerializerInvalidTimestamp(t *testing.T) {
	b, err := bulkclient.LogStashSerializer{}.ContentBuilder(bulkclient.Event{
		Headers: map[string]string{"timestamp": "yesterday", "type": "syslog"},
		Body:    []byte(`{"msg":"hi"}`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"@message": {"msg": "hi"},
		"@type": "syslog",
		"@fields": {"timestamp": "yesterday", "type": "syslog"}
	}`, finishDocument(t, b))
}
