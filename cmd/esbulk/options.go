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
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/elastic/go-bulkclient"
)

const envPrefix = "ESBULK"

// options holds the resolved command line, environment and config file
// settings.
type options struct {
	Hosts            string `mapstructure:"hosts"`
	ClusterName      string `mapstructure:"cluster-name"`
	Index            string `mapstructure:"index"`
	IndexType        string `mapstructure:"index-type"`
	TimeBasedIndex   bool   `mapstructure:"time-based-index"`
	Serializer       string `mapstructure:"serializer"`
	BatchSize        int    `mapstructure:"batch-size"`
	CompressionLevel int    `mapstructure:"compression-level"`
	LogLevel         string `mapstructure:"log-level"`
	LogFile          string `mapstructure:"log-file"`
}

func registerFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("config", "", "path to a config file (yaml, toml or json)")
	flags.String("hosts", "localhost:9200", "comma separated list of host[:port] cluster addresses")
	flags.String("cluster-name", bulkclient.DefaultClusterName, "cluster name, used in logs")
	flags.String("index", "flume", "index name, or index prefix with --time-based-index")
	flags.String("index-type", "log", "index type passed to the client")
	flags.Bool("time-based-index", false, "write to daily indices named <index>-<yyyy-mm-dd>")
	flags.String("serializer", "dynamic", "event serializer: dynamic or logstash")
	flags.Int("batch-size", 100, "number of events per bulk request")
	flags.Int("compression-level", 0, "gzip compression level for bulk requests, -1 to 9")
	flags.String("log-level", "info", "log level")
	flags.String("log-file", "", "write logs to this file, rotating it, instead of stderr")
}

// loadOptions resolves options from flags, ESBULK_* environment variables
// and the optional config file, in that order of precedence.
func loadOptions(cmd *cobra.Command) (options, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return options{}, err
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return options{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	var opts options
	if err := v.Unmarshal(&opts); err != nil {
		return options{}, fmt.Errorf("failed to decode options: %w", err)
	}
	if opts.BatchSize <= 0 {
		return options{}, fmt.Errorf("batch-size must be positive, got %d", opts.BatchSize)
	}
	return opts, nil
}

func (o options) serializer() (bulkclient.EventSerializer, error) {
	switch o.Serializer {
	case "dynamic", "":
		return bulkclient.DynamicSerializer{}, nil
	case "logstash":
		return bulkclient.LogStashSerializer{}, nil
	}
	return nil, fmt.Errorf("unknown serializer %q", o.Serializer)
}

func (o options) indexNameBuilder() bulkclient.IndexNameBuilder {
	if o.TimeBasedIndex {
		return bulkclient.TimeBasedIndexNameBuilder{Prefix: o.Index}
	}
	return bulkclient.SimpleIndexNameBuilder{Name: o.Index}
}
