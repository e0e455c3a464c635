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
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.elastic.co/apm/module/apmzap/v2"
	"go.elastic.co/apm/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// State is the lifecycle state of a Client.
type State int

const (
	// StateUnopened is the state of a Client which has never been opened.
	StateUnopened State = iota
	// StateOpen is the state of a Client holding a connection handle.
	StateOpen
	// StateClosed is the state of a Client whose handle has been released.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Client writes batches of events to an Elasticsearch cluster.
//
// Events are added to an in-memory batch with AddEvent, and the batch is
// sent as a single _bulk request with Execute. Client is not safe for
// concurrent use; all methods must be called from a single goroutine, or
// otherwise serialized by the caller.
type Client struct {
	config    Config
	endpoints []Endpoint
	conn      *connection
	state     State
	batch     *BulkBatch
	encoder   *bulkEncoder
	metrics   *metrics

	// tracer is an OTel tracer, and should not be confused with `c.config.Tracer`
	// which is an Elastic APM Tracer.
	tracer trace.Tracer
}

// New returns a new Client. If cfg.Addresses is non-empty the addresses
// are resolved and a connection handle is opened; otherwise the Client is
// returned unopened, and must be given addresses with Configure and then
// opened with Open before batches can be executed.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	endpoints, err := ResolveAddresses(cfg.Addresses)
	if err != nil {
		return nil, err
	}
	ms, err := newMetrics(cfg)
	if err != nil {
		return nil, err
	}
	c := &Client{
		config:    cfg,
		endpoints: endpoints,
		encoder:   newBulkEncoder(cfg.CompressionLevel),
		metrics:   ms,
	}
	if cfg.TracerProvider != nil {
		c.tracer = cfg.TracerProvider.Tracer("github.com/elastic/go-bulkclient")
	}
	if len(endpoints) > 0 {
		if err := c.Open(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Configure applies settings to the client. The recognised keys are
// SettingHostNames and SettingClusterName; other keys are ignored.
//
// Configure does not open a connection: call Open to connect to newly
// configured addresses. If any setting is invalid, including a host names
// value with no addresses, the client is left unchanged.
func (c *Client) Configure(settings map[string]string) error {
	endpoints := c.endpoints
	if v, ok := settings[SettingHostNames]; ok {
		resolved, err := ResolveAddresses(SplitAddresses(v))
		if err != nil {
			return err
		}
		if len(resolved) == 0 {
			return &ConfigurationError{Entry: v, Err: ErrNoEndpoints}
		}
		endpoints = resolved
	}
	c.endpoints = endpoints
	if v := strings.TrimSpace(settings[SettingClusterName]); v != "" {
		c.config.ClusterName = v
	}
	return nil
}

// Open opens a connection handle to the configured endpoints. Any
// previously opened handle is released once the new one has been
// created; failures to release it are logged, not returned.
func (c *Client) Open() error {
	if len(c.endpoints) == 0 {
		return &ConfigurationError{Err: ErrNoEndpoints}
	}
	c.config.Logger.Info("using elasticsearch hosts",
		zap.String("cluster", c.config.ClusterName),
		zap.Stringers("hosts", c.endpoints),
	)
	conn, err := openConnection(c.endpoints, c.config)
	if err != nil {
		return &TransportError{Op: "open", Err: err}
	}
	c.release()
	c.conn = conn
	c.state = StateOpen
	return nil
}

// Close releases the connection handle. Close may be called any number of
// times and never returns an error; failures to release the handle are
// logged. A closed client may be opened again with Open.
func (c *Client) Close() error {
	if c.release() {
		c.state = StateClosed
	}
	return nil
}

// release closes the current handle, if any, and reports whether there
// was one.
func (c *Client) release() bool {
	if c.conn == nil {
		return false
	}
	if err := c.conn.Close(); err != nil {
		c.config.Logger.Warn("failed to close elasticsearch client",
			zap.String("cluster", c.config.ClusterName),
			zap.Error(err),
		)
	}
	c.conn = nil
	return true
}

// State returns the lifecycle state of the client.
func (c *Client) State() State {
	return c.state
}

// Endpoints returns the resolved cluster endpoints.
func (c *Client) Endpoints() []Endpoint {
	return append([]Endpoint(nil), c.endpoints...)
}

// ClusterName returns the configured cluster name.
func (c *Client) ClusterName() string {
	return c.config.ClusterName
}

// BatchLen returns the number of requests waiting in the current batch.
func (c *Client) BatchLen() int {
	if c.batch == nil {
		return 0
	}
	return c.batch.Len()
}

// AddEvent converts ev into an index request for the index chosen by
// namer, and appends it to the current batch. It does not perform any I/O.
//
// indexType and ttl are accepted for compatibility with older sink
// configurations. Elasticsearch no longer supports mapping types or
// per-document TTLs, so neither is sent; indexType is passed through to
// an IndexRequestFactory.
//
// If ev cannot be serialized, a *SerializationError is returned and the
// batch is left unchanged.
func (c *Client) AddEvent(ev Event, namer IndexNameBuilder, indexType string, ttl time.Duration) error {
	if namer == nil {
		return &ConfigurationError{Err: errors.New("nil IndexNameBuilder")}
	}
	index := namer.IndexName(ev)
	if index == "" {
		return &SerializationError{Err: errMissingIndexName}
	}
	req, err := c.newIndexRequest(index, indexType, ev)
	if err != nil {
		return err
	}
	if c.batch == nil {
		c.batch = &BulkBatch{}
	}
	c.batch.Add(req)
	c.metrics.docsAdded.Add(context.Background(), 1, metric.WithAttributeSet(c.config.MetricAttributes))
	return nil
}

func (c *Client) newIndexRequest(index, indexType string, ev Event) (IndexRequest, error) {
	if c.config.Serializer != nil {
		builder, err := c.config.Serializer.ContentBuilder(ev)
		if err != nil {
			return IndexRequest{}, &SerializationError{Err: err}
		}
		if builder == nil {
			return IndexRequest{}, &SerializationError{Err: errMissingBody}
		}
		body, err := builder.finish()
		if err != nil {
			return IndexRequest{}, &SerializationError{Err: err}
		}
		return singleLine(IndexRequest{Index: index, Body: body})
	}
	req, err := c.config.RequestFactory.NewIndexRequest(index, indexType, ev)
	if err != nil {
		return IndexRequest{}, &SerializationError{Err: err}
	}
	if len(req.Body) == 0 {
		return IndexRequest{}, &SerializationError{Err: errMissingBody}
	}
	if req.Index == "" {
		req.Index = index
	}
	return singleLine(req)
}

// singleLine compacts a body spanning several lines, as each document
// must occupy exactly one line of the bulk request.
func singleLine(req IndexRequest) (IndexRequest, error) {
	if bytes.IndexByte(req.Body, '\n') < 0 {
		return req, nil
	}
	body, err := compactJSON(req.Body)
	if err != nil {
		return IndexRequest{}, &SerializationError{
			Err: fmt.Errorf("document body spans multiple lines and is not valid JSON: %w", err),
		}
	}
	req.Body = body
	return req, nil
}

// Execute sends the current batch as a single bulk request.
//
// The batch is replaced with an empty one before the request is sent, so
// it is always empty when Execute returns, whether or not the request
// succeeded. Callers that need to retry failed batches must keep their
// own copy of the events.
//
// If the batch is empty, Execute returns immediately without sending a
// request. If the client is not open, or the request fails, a
// *TransportError is returned. Failures of individual documents are not
// errors: they are reported in the returned BulkResponseStat and logged.
func (c *Client) Execute(ctx context.Context) (BulkResponseStat, error) {
	var requests []IndexRequest
	if c.batch != nil {
		requests = c.batch.DrainAndReset()
	}
	n := len(requests)
	if c.state != StateOpen || c.conn == nil {
		if n > 0 {
			c.recordProcessed(int64(n), "Dropped")
		}
		return BulkResponseStat{}, &TransportError{Op: "bulk", Err: ErrNotOpen}
	}
	if n == 0 {
		return BulkResponseStat{}, nil
	}
	return c.flush(ctx, requests)
}

func (c *Client) flush(ctx context.Context, requests []IndexRequest) (BulkResponseStat, error) {
	n := len(requests)
	attrs := metric.WithAttributeSet(c.config.MetricAttributes)
	defer c.metrics.bulkRequests.Add(context.Background(), 1, attrs)

	logger := c.config.Logger
	if c.config.Tracer != nil && c.config.Tracer.Recording() {
		tx := c.config.Tracer.StartTransaction("bulkclient.execute", "output")
		tx.Context.SetLabel("documents", n)
		defer tx.End()
		ctx = apm.ContextWithTransaction(ctx, tx)

		// Add trace IDs to logger, to associate any per-item errors
		// below with the trace.
		logger = logger.With(apmzap.TraceContext(ctx)...)
	}
	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.Start(ctx, "bulkclient.execute", trace.WithAttributes(
			attribute.Int("documents", n),
		))
		defer span.End()
		logger = logger.With(
			zap.String("traceId", span.SpanContext().TraceID().String()),
			zap.String("spanId", span.SpanContext().SpanID().String()),
		)
	}

	if err := c.encoder.encode(requests); err != nil {
		c.recordProcessed(int64(n), "Dropped")
		return BulkResponseStat{}, &TransportError{Op: "encode", Err: err}
	}

	start := time.Now()
	resp, err := c.encoder.send(ctx, c.conn.client)
	c.metrics.flushDuration.Record(context.Background(), time.Since(start).Seconds(), attrs)

	var transportErr *TransportError
	if err == nil || (errors.As(err, &transportErr) && transportErr.StatusCode != 0) {
		// A response was received, so the body was sent.
		c.metrics.bytesTotal.Add(context.Background(), int64(c.encoder.buf.Len()), attrs)
		c.metrics.bytesUncompressedTotal.Add(context.Background(), int64(c.encoder.uncompressed), attrs)
	}
	if err != nil {
		logger.Error("bulk indexing request failed",
			zap.String("cluster", c.config.ClusterName),
			zap.Int("documents", n),
			zap.Error(err),
		)
		if span != nil && span.IsRecording() {
			span.RecordError(err)
			span.SetStatus(codes.Error, "bulk indexing request failed")
		}
		if apm.TransactionFromContext(ctx) != nil {
			apm.CaptureError(ctx, err).Send()
		}
		c.recordProcessed(int64(n), requestFailureStatus(err))
		return resp, err
	}

	var tooManyRequests, clientFailed, serverFailed int64
	var failedCount map[BulkResponseItem]int
	if len(resp.FailedDocs) > 0 {
		failedCount = make(map[BulkResponseItem]int, len(resp.FailedDocs))
	}
	for _, info := range resp.FailedDocs {
		switch {
		case info.Status == http.StatusTooManyRequests:
			tooManyRequests++
		case info.Status >= 500:
			serverFailed++
		default:
			clientFailed++
		}
		info.Position = 0 // reset position so that the response item can be used as key in the map
		failedCount[info]++
		if span != nil && span.IsRecording() {
			span.RecordError(errors.New(info.Error.Reason))
		}
	}
	for key, count := range failedCount {
		logger.Error(fmt.Sprintf("failed to index documents in '%s' (%s): %s",
			key.Index, key.Error.Type, key.Error.Reason,
		), zap.Int("documents", count))
	}
	c.recordProcessed(resp.Indexed, "Success")
	c.recordProcessed(tooManyRequests, "TooMany")
	c.recordProcessed(clientFailed, "FailedClient")
	c.recordProcessed(serverFailed, "FailedServer")
	logger.Debug(
		"bulk request completed",
		zap.Int64("docs_indexed", resp.Indexed),
		zap.Int("docs_failed", len(resp.FailedDocs)),
		zap.Int64("docs_rate_limited", tooManyRequests),
	)
	if span != nil && span.IsRecording() {
		if len(resp.FailedDocs) > 0 {
			span.SetStatus(codes.Error, "some documents failed to index")
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
	return resp, nil
}

func (c *Client) recordProcessed(n int64, status string) {
	if n <= 0 {
		return
	}
	c.metrics.docsProcessed.Add(
		context.Background(),
		n,
		metric.WithAttributeSet(c.config.MetricAttributes),
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// requestFailureStatus classifies a failed bulk request for the
// elasticsearch.events.processed metric.
func requestFailureStatus(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Timeout"
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		switch {
		case transportErr.TooManyRequests():
			return "TooMany"
		case transportErr.StatusCode >= 500:
			return "FailedServer"
		case transportErr.StatusCode >= 400:
			return "FailedClient"
		}
	}
	return "Failed"
}
