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
	"fmt"

	"github.com/klauspost/compress/gzip"
	"go.elastic.co/apm/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// SettingHostNames is the Configure key for the comma separated list
	// of cluster addresses.
	SettingHostNames = "hostNames"

	// SettingClusterName is the Configure key for the cluster name.
	SettingClusterName = "clusterName"

	// DefaultClusterName is the cluster name used when none is configured.
	DefaultClusterName = "elasticsearch"

	// DefaultScheme is the URL scheme used to reach cluster members when
	// none is configured.
	DefaultScheme = "http"
)

// Config holds configuration for Client.
type Config struct {
	// Addresses holds the cluster members to connect to, in "host" or
	// "host:port" form. Addresses without a port use DefaultPort.
	//
	// If Addresses is empty, New returns an unopened Client; addresses
	// may be provided later with Configure, followed by Open.
	Addresses []string

	// ClusterName identifies the cluster in logs.
	//
	// If ClusterName is empty, DefaultClusterName is used.
	ClusterName string

	// Scheme holds the URL scheme used to reach the cluster members.
	//
	// If Scheme is empty, DefaultScheme is used.
	Scheme string

	// Serializer converts events into documents.
	//
	// Exactly one of Serializer and RequestFactory must be set.
	Serializer EventSerializer

	// RequestFactory converts events into complete index requests.
	//
	// Exactly one of Serializer and RequestFactory must be set.
	RequestFactory IndexRequestFactory

	// Logger holds an optional Logger to use for logging bulk requests.
	//
	// If Logger is nil, logging will be disabled.
	Logger *zap.Logger

	// CompressionLevel holds the gzip compression level, from 0 (gzip.NoCompression)
	// to 9 (gzip.BestCompression). Higher values provide greater compression, at a
	// greater cost of CPU. The special value -1 (gzip.DefaultCompression) selects the
	// default compression level.
	CompressionLevel int

	// Tracer holds an optional apm.Tracer to use for tracing bulk requests
	// to Elasticsearch. Each bulk request is traced as a transaction.
	//
	// If Tracer is nil, requests will not be traced with Elastic APM.
	Tracer *apm.Tracer

	// TracerProvider holds an optional OTel TracerProvider. Each bulk
	// request is traced as a span.
	//
	// If TracerProvider is nil, requests will not be traced with OTel.
	TracerProvider trace.TracerProvider

	// MeterProvider holds the OTel MeterProvider to be used to create and
	// record client metrics.
	//
	// If unset, the global OTel MeterProvider will be used, if that is unset,
	// no metrics will be recorded.
	MeterProvider metric.MeterProvider

	// MetricAttributes holds any extra attributes to set in the recorded
	// metrics.
	MetricAttributes attribute.Set
}

func (cfg Config) withDefaults() Config {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.ClusterName == "" {
		cfg.ClusterName = DefaultClusterName
	}
	if cfg.Scheme == "" {
		cfg.Scheme = DefaultScheme
	}
	return cfg
}

// Validate checks that the configuration is usable, without resolving
// or connecting to any addresses.
func (cfg Config) Validate() error {
	switch {
	case cfg.Serializer == nil && cfg.RequestFactory == nil:
		return &ConfigurationError{Err: ErrNoBinding}
	case cfg.Serializer != nil && cfg.RequestFactory != nil:
		return &ConfigurationError{Err: ErrAmbiguousBinding}
	}
	if cfg.CompressionLevel < gzip.DefaultCompression || cfg.CompressionLevel > gzip.BestCompression {
		return &ConfigurationError{Err: fmt.Errorf(
			"expected CompressionLevel in range [-1,9], got %d",
			cfg.CompressionLevel,
		)}
	}
	return nil
}
