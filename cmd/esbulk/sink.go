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

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elastic/go-bulkclient"
)

// errBatchesFailed is returned by sink.run when at least one bulk request
// failed.
var errBatchesFailed = errors.New("one or more batches failed")

// lineSource reads one event per non-empty line.
type lineSource struct {
	r        io.Reader
	path     string
	hostname string
	now      func() time.Time
}

func newLineSource(r io.Reader, path string) *lineSource {
	hostname, _ := os.Hostname()
	return &lineSource{r: r, path: path, hostname: hostname, now: time.Now}
}

// read sends events to out until the reader is exhausted or ctx is done.
func (s *lineSource) read(ctx context.Context, out chan<- bulkclient.Event) error {
	defer close(out)
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev := bulkclient.Event{
			Headers: map[string]string{
				bulkclient.TimestampHeader: strconv.FormatInt(s.now().UnixMilli(), 10),
				"host":                     s.hostname,
				"src_path":                 s.path,
			},
			Body: append([]byte(nil), line...),
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- ev:
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return nil
}

// sink drives a bulkclient.Client: one AddEvent per event and one Execute
// per batchSize events, plus a final Execute for the remainder.
type sink struct {
	client    *bulkclient.Client
	namer     bulkclient.IndexNameBuilder
	indexType string
	batchSize int
	logger    *zap.Logger

	added  int
	failed int
}

func (s *sink) run(ctx context.Context, src *lineSource) error {
	s.added, s.failed = 0, 0
	events := make(chan bulkclient.Event, s.batchSize)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return src.read(ctx, events)
	})
	g.Go(func() error {
		for ev := range events {
			if err := s.client.AddEvent(ev, s.namer, s.indexType, 0); err != nil {
				s.logger.Warn("dropping event", zap.String("source", src.path), zap.Error(err))
				continue
			}
			s.added++
			if s.client.BatchLen() >= s.batchSize {
				s.execute(ctx)
			}
		}
		s.execute(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Debug("finished reading events", zap.String("source", src.path), zap.Int("events", s.added))
	if s.failed > 0 {
		return fmt.Errorf("%w: %d of the batches from %s", errBatchesFailed, s.failed, src.path)
	}
	return nil
}

func (s *sink) execute(ctx context.Context) {
	n := s.client.BatchLen()
	if n == 0 {
		return
	}
	stat, err := s.client.Execute(ctx)
	if err != nil {
		// The client has already dropped the batch.
		s.failed++
		return
	}
	s.logger.Info("batch written",
		zap.Int("documents", n),
		zap.Int64("indexed", stat.Indexed),
		zap.Int("failed", len(stat.FailedDocs)),
	)
}
