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
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elastic/go-bulkclient"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "esbulk [file...]",
		Short: "Write newline-delimited events to Elasticsearch in bulk",
		Long: `esbulk reads events, one per line, from the given files or from
standard input, and writes them to an Elasticsearch cluster using the _bulk
API. Every --batch-size events are sent as a single bulk request.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(opts.LogLevel, opts.LogFile)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runFiles(ctx, opts, logger, cmd.InOrStdin(), args)
		},
	}
	registerFlags(cmd)
	return cmd
}

// runFiles opens a client from opts and writes the events read from each
// named file, or from stdin when no files are named.
func runFiles(ctx context.Context, opts options, logger *zap.Logger, stdin io.Reader, paths []string) error {
	serializer, err := opts.serializer()
	if err != nil {
		return err
	}
	client, err := bulkclient.New(bulkclient.Config{
		Addresses:        bulkclient.SplitAddresses(opts.Hosts),
		ClusterName:      opts.ClusterName,
		Serializer:       serializer,
		CompressionLevel: opts.CompressionLevel,
		Logger:           logger,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	s := &sink{
		client:    client,
		namer:     opts.indexNameBuilder(),
		indexType: opts.IndexType,
		batchSize: opts.BatchSize,
		logger:    logger,
	}
	if len(paths) == 0 {
		return s.run(ctx, newLineSource(stdin, "-"))
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		err = s.run(ctx, newLineSource(f, path))
		f.Close()
		if err != nil {
			return err
		}
	}
	return nil
}
