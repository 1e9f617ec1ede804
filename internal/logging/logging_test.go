package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSONWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(Opts{JSON: true, Debug: true, UID: true, Service: "unlockd", Output: &buf})
	log.Debug("hello", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "unlockd", line["service"])
	assert.Equal(t, Version, line["version"])
	assert.NotEmpty(t, line["uid"])
}

func TestSetupSuppressesDebugByDefault(t *testing.T) {
	var buf bytes.Buffer
	Setup(Opts{Output: &buf}).Debug("hidden")
	assert.Empty(t, buf.String())
}
