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
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unsafe"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/gzip"
	"go.elastic.co/fastjson"
)

// BulkResponseStat summarises the response to a bulk request.
type BulkResponseStat struct {
	Indexed    int64
	FailedDocs []BulkResponseItem
}

// BulkResponseItem represents a failed item in an Elasticsearch bulk response.
type BulkResponseItem struct {
	Index  string `json:"_index"`
	Status int    `json:"status"`

	// Position holds the position of the item in the bulk request.
	Position int

	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

func init() {
	jsoniter.RegisterTypeDecoderFunc("bulkclient.BulkResponseStat", func(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
		stat := (*BulkResponseStat)(ptr)
		iter.ReadObjectCB(func(i *jsoniter.Iterator, s string) bool {
			switch s {
			case "items":
				var idx int
				i.ReadArrayCB(func(i *jsoniter.Iterator) bool {
					return i.ReadMapCB(func(i *jsoniter.Iterator, s string) bool {
						var item BulkResponseItem
						i.ReadObjectCB(func(i *jsoniter.Iterator, s string) bool {
							switch s {
							case "_index":
								item.Index = i.ReadString()
							case "status":
								item.Status = i.ReadInt()
							case "error":
								i.ReadObjectCB(func(i *jsoniter.Iterator, s string) bool {
									switch s {
									case "type":
										item.Error.Type = i.ReadString()
									case "reason":
										// Drop the field value preview appended by
										// Elasticsearch's field mappers.
										item.Error.Reason, _, _ = strings.Cut(
											i.ReadString(), ". Preview",
										)
									default:
										i.Skip()
									}
									return true
								})
							default:
								i.Skip()
							}
							return true
						})
						item.Position = idx
						idx++
						if item.Error.Type != "" || item.Status > 201 {
							stat.FailedDocs = append(stat.FailedDocs, item)
						} else {
							stat.Indexed++
						}
						return true
					})
				})
			default:
				i.Skip()
			}
			return true
		})
	})
}

// bulkEncoder encodes index requests as a _bulk request body.
type bulkEncoder struct {
	jsonw        fastjson.Writer
	writer       io.Writer
	gzipw        *gzip.Writer
	buf          bytes.Buffer
	uncompressed int
}

func newBulkEncoder(compressionLevel int) *bulkEncoder {
	e := &bulkEncoder{}
	if compressionLevel != gzip.NoCompression {
		e.gzipw, _ = gzip.NewWriterLevel(&e.buf, compressionLevel)
		e.writer = e.gzipw
	} else {
		e.writer = &e.buf
	}
	return e
}

func (e *bulkEncoder) reset() {
	e.uncompressed = 0
	e.buf.Reset()
	if e.gzipw != nil {
		e.gzipw.Reset(&e.buf)
	}
}

func (e *bulkEncoder) gzipped() bool {
	return e.gzipw != nil
}

// encode writes requests, replacing any previously encoded body.
func (e *bulkEncoder) encode(requests []IndexRequest) error {
	e.reset()
	for _, req := range requests {
		if err := e.add(req); err != nil {
			return err
		}
	}
	if e.gzipw != nil {
		if err := e.gzipw.Close(); err != nil {
			return fmt.Errorf("failed to compress bulk request: %w", err)
		}
	}
	return nil
}

func (e *bulkEncoder) add(req IndexRequest) error {
	e.writeMeta(req.Index, req.DocumentID)
	if _, err := e.writer.Write(e.jsonw.Bytes()); err != nil {
		return fmt.Errorf("failed to write bulk action: %w", err)
	}
	e.uncompressed += len(e.jsonw.Bytes())
	e.jsonw.Reset()
	if _, err := e.writer.Write(req.Body); err != nil {
		return fmt.Errorf("failed to write bulk document: %w", err)
	}
	if _, err := e.writer.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	e.uncompressed += len(req.Body) + 1
	return nil
}

func (e *bulkEncoder) writeMeta(index, documentID string) {
	e.jsonw.RawString(`{"index":{"_index":`)
	e.jsonw.String(index)
	if documentID != "" {
		e.jsonw.RawString(`,"_id":`)
		e.jsonw.String(documentID)
	}
	e.jsonw.RawString("}}\n")
}

// send issues the encoded body as a single bulk request with default
// request options.
func (e *bulkEncoder) send(ctx context.Context, transport esapi.Transport) (BulkResponseStat, error) {
	req := esapi.BulkRequest{
		Body:       bytes.NewReader(e.buf.Bytes()),
		Header:     make(http.Header),
		FilterPath: []string{"items.*._index", "items.*.status", "items.*.error.type", "items.*.error.reason"},
	}
	if e.gzipped() {
		req.Header.Set("Content-Encoding", "gzip")
	}

	var resp BulkResponseStat
	res, err := req.Do(ctx, transport)
	if err != nil {
		return resp, &TransportError{Op: "bulk", Err: fmt.Errorf("failed to execute the request: %w", err)}
	}
	defer res.Body.Close()

	if res.IsError() {
		return resp, &TransportError{
			Op:         "bulk",
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("flush failed: %s", res.String()),
		}
	}
	if err := jsoniter.NewDecoder(res.Body).Decode(&resp); err != nil {
		return resp, &TransportError{
			Op:         "bulk",
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("error decoding bulk response: %w", err),
		}
	}
	return resp, nil
}
