package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestDescribe(t *testing.T) {
	stdout, _, err := execute(t, "describe")
	require.NoError(t, err)

	assert.Contains(t, stdout, "WebsiteUser")
	assert.Contains(t, stdout, "Wait time:  between(1s, 5s)")
	assert.Contains(t, stdout, "access_prayer")
	assert.Contains(t, stdout, "weight 1")
	assert.Contains(t, stdout, "GET /getPrayerData?hall=hall-h3-new")
	assert.Contains(t, stdout, "constant-vus")
	assert.Contains(t, stdout, "per-vu-iterations")
}

func TestDescribeWithHost(t *testing.T) {
	stdout, _, err := execute(t, "describe", "--host", "https://prayer.example.org/api?x=1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "GET https://prayer.example.org/api/getPrayerData?hall=hall-h3-new")

	_, _, err = execute(t, "describe", "--host", "ftp://prayer.example.org")
	assert.Error(t, err)
}

func TestDescribeJSON(t *testing.T) {
	stdout, _, err := execute(t, "describe", "--json")
	require.NoError(t, err)
	require.True(t, gjson.Valid(stdout))

	assert.Equal(t, "WebsiteUser", gjson.Get(stdout, "name").String())
	assert.Equal(t, int64(1e9), gjson.Get(stdout, "waitTime.min").Int())
	assert.Equal(t, int64(5e9), gjson.Get(stdout, "waitTime.max").Int())
	assert.Equal(t, int64(1), gjson.Get(stdout, "tasks.#").Int())
	assert.Equal(t, "/getPrayerData", gjson.Get(stdout, "tasks.0.path").String())
	assert.Equal(t, "hall=hall-h3-new", gjson.Get(stdout, "tasks.0.query").String())
}

func TestDescribeSchema(t *testing.T) {
	stdout, _, err := execute(t, "describe", "--schema")
	require.NoError(t, err)
	require.True(t, gjson.Valid(stdout))
	assert.Equal(t, "string", gjson.Get(stdout, "properties.host.type").String())
	assert.True(t, gjson.Get(stdout, "properties.thresholds.properties.http_req_duration").Exists())
}

func TestDescribeUnknownProfile(t *testing.T) {
	_, _, err := execute(t, "describe", "--profile", "nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown profile")
}
