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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elastic/go-bulkclient"
)

func TestResolveAddresses(t *testing.T) {
	endpoints, err := bulkclient.ResolveAddresses([]string{"es1:9300", "es2", " es3 : 9201 ", "10.0.0.1:1"})
	require.NoError(t, err)
	assert.Equal(t, []bulkclient.Endpoint{
		{Host: "es1", Port: 9300},
		{Host: "es2", Port: bulkclient.DefaultPort},
		{Host: "es3", Port: 9201},
		{Host: "10.0.0.1", Port: 1},
	}, endpoints)
}

func TestResolveAddressesEmptyList(t *testing.T) {
	endpoints, err := bulkclient.ResolveAddresses(nil)
	require.NoError(t, err)
	assert.Empty(t, endpoints)
}

func TestResolveAddressesInvalid(t *testing.T) {
	for _, addr := range []string{
		"a:b:c",
		"host:notanumber",
		"",
		"   ",
		":9200",
		"host:",
		"host:0",
		"host:65536",
		"host:-1",
	} {
		t.Run(addr, func(t *testing.T) {
			_, err := bulkclient.ResolveAddresses([]string{"ok:9200", addr})
			require.Error(t, err)
			var cfgErr *bulkclient.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, addr, cfgErr.Entry)
		})
	}
}

func TestEndpointURL(t *testing.T) {
	e := bulkclient.Endpoint{Host: "es1", Port: 9200}
	assert.Equal(t, "es1:9200", e.String())
	assert.Equal(t, "https://es1:9200", e.URL("https"))
}

func TestSplitAddresses(t *testing.T) {
	assert.Equal(t, []string{"es1:9200", "es2", "es3:9201"}, bulkclient.SplitAddresses("es1:9200, es2,,es3:9201 "))
	assert.Empty(t, bulkclient.SplitAddresses(" , "))
}
