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
	"errors"
	"net"
	"strconv"
	"strings"
)

// DefaultPort is the port used for addresses which do not specify one.
const DefaultPort = 9300

// Endpoint identifies a single cluster member.
type Endpoint struct {
	Host string
	Port int
}

// String returns the endpoint in host:port form.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// URL returns the endpoint as a URL with the given scheme.
func (e Endpoint) URL(scheme string) string {
	return scheme + "://" + e.String()
}

// ResolveAddresses parses a list of "host" or "host:port" addresses into
// endpoints, in the same order. Addresses without a port use DefaultPort.
func ResolveAddresses(addrs []string) ([]Endpoint, error) {
	endpoints := make([]Endpoint, 0, len(addrs))
	for _, addr := range addrs {
		endpoint, err := resolveAddress(addr)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, endpoint)
	}
	return endpoints, nil
}

func resolveAddress(addr string) (Endpoint, error) {
	parts := strings.Split(strings.TrimSpace(addr), ":")
	if len(parts) > 2 {
		return Endpoint{}, &ConfigurationError{
			Entry: addr, Err: errors.New("expected host or host:port"),
		}
	}
	host := strings.TrimSpace(parts[0])
	if host == "" {
		return Endpoint{}, &ConfigurationError{
			Entry: addr, Err: errors.New("empty host"),
		}
	}
	port := DefaultPort
	if len(parts) == 2 {
		p, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return Endpoint{}, &ConfigurationError{Entry: addr, Err: err}
		}
		if p <= 0 || p > 65535 {
			return Endpoint{}, &ConfigurationError{
				Entry: addr, Err: errors.New("port out of range"),
			}
		}
		port = p
	}
	return Endpoint{Host: host, Port: port}, nil
}

// SplitAddresses splits a comma or whitespace separated address list,
// dropping empty items.
func SplitAddresses(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
