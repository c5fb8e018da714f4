package cfg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesOnlyPresentKeys(t *testing.T) {
	const doc = `
log_level = "debug"
status_context = "merge-state"
queue_filter_query = ".prio >= 0"
`

	cfg, err := Load(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "merge-state", cfg.StatusContext)
	assert.Equal(t, ".prio >= 0", cfg.QueueFilterQuery)

	assert.Equal(t, Default().LogFormat, cfg.LogFormat)
	assert.Equal(t, Default().QueueSnapshotFile, cfg.QueueSnapshotFile)
	assert.Equal(t, Default().HTTPTimeoutSeconds, cfg.HTTPTimeoutSeconds)
}

func TestLoadFailsOnInvalidValues(t *testing.T) {
	testcases := []struct {
		name string
		doc  string
	}{
		{name: "log_format", doc: `log_format = "xml"`},
		{name: "http_timeout", doc: `http_timeout_seconds = 0`},
		{name: "retry_timeout", doc: `fetch_retry_timeout_seconds = -1`},
		{name: "toml_syntax", doc: `log_format = [`},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.doc))
			require.Error(t, err)
		})
	}
}

func TestMarshalledConfigLoads(t *testing.T) {
	var buf strings.Builder

	require.NoError(t, Default().Marshal(&buf))

	cfg, err := Load(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
