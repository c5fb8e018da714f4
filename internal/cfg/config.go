// Package cfg loads the two configuration layers of landlord: the operator
// configuration (TOML) that tunes logging, endpoints and file locations, and
// the repository configuration (JSON) that describes the repository whose
// merge queue is managed.
package cfg

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml"
)

// Config is the operator configuration. All fields have defaults, a missing
// config file is not an error.
type Config struct {
	LogFormat  string `toml:"log_format" comment:"log output format: logfmt, json or console"`
	LogTimeKey string `toml:"log_time_key" comment:"name of the log field containing the timestamp, empty disables timestamps"`
	LogLevel   string `toml:"log_level" comment:"minimum log level: debug, info, warn or error"`

	GithubAPIURL     string `toml:"github_api_url" comment:"base URL of the GitHub REST API, empty uses api.github.com"`
	GithubGraphQLURL string `toml:"github_graphql_url" comment:"URL of the GitHub GraphQL endpoint, empty uses api.github.com/graphql"`

	StatusContext    string `toml:"status_context" comment:"context of the commit status that records an entry's queue state"`
	QueueFilterQuery string `toml:"queue_filter_query" comment:"optional jq expression evaluated per queue entry, entries for that it returns true are admitted"`

	RepoCfgFile string `toml:"repo_cfg_file" comment:"path to the repository configuration (JSON), empty uses <workspace>/landlord.cfg.json"`

	QueueSnapshotFile string `toml:"queue_snapshot_file" comment:"queue snapshot output file, relative paths are resolved in the workspace"`
	MetricsFile       string `toml:"metrics_file" comment:"prometheus textfile-collector output file, relative paths are resolved in the workspace, empty disables metrics"`

	HTTPTimeoutSeconds       int `toml:"http_timeout_seconds" comment:"timeout for single HTTP requests to GitHub and the CI service"`
	FetchRetryTimeoutSeconds int `toml:"fetch_retry_timeout_seconds" comment:"max. time that retrying failed snapshot fetches is allowed to take"`
}

func Default() *Config {
	return &Config{
		LogFormat:                "logfmt",
		LogTimeKey:               "time",
		LogLevel:                 "info",
		StatusContext:            "landlord",
		QueueSnapshotFile:        "landlord-queue.json",
		MetricsFile:              "landlord.prom",
		HTTPTimeoutSeconds:       60,
		FetchRetryTimeoutSeconds: 120,
	}
}

// Load reads a TOML operator configuration. Keys that are absent from the
// document keep their Default() value.
func Load(reader io.Reader) (*Config, error) {
	result := Default()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, result); err != nil {
		return nil, err
	}

	if err := result.validate(); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "logfmt", "json", "console":
	default:
		return fmt.Errorf("unsupported log_format: %q", c.LogFormat)
	}

	if c.HTTPTimeoutSeconds <= 0 {
		return fmt.Errorf("http_timeout_seconds must be >0, is %d", c.HTTPTimeoutSeconds)
	}

	if c.FetchRetryTimeoutSeconds <= 0 {
		return fmt.Errorf("fetch_retry_timeout_seconds must be >0, is %d", c.FetchRetryTimeoutSeconds)
	}

	return nil
}

func (c *Config) Marshal(writer io.Writer) error {
	return toml.NewEncoder(writer).Encode(c)
}
