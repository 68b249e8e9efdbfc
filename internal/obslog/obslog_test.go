package obslog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDefault_DoesNotPanic(t *testing.T) {
	l := Default()
	require.NotNil(t, l)
	l.Info("hello", "key", "value")
	l.With("request_id", "abc").Warn("careful")
}

func TestNewMetrics_RegistersCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.FilesIndexed.Add(3)
	m.ParseErrors.Inc()
	m.BuildDuration.Observe(0.5)
	m.ParsesByLanguage.WithLabelValues("go").Inc()
	m.ParseErrorsByLanguage.WithLabelValues("go").Inc()
	m.ParseDuration.WithLabelValues("go").Observe(0.01)

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["codeindex_files_indexed_total"])
	assert.True(t, names["codeindex_parse_errors_total"])
	assert.True(t, names["codeindex_build_duration_seconds"])
	assert.True(t, names["codeindex_parses_total"])
	assert.True(t, names["codeindex_parse_errors_by_language_total"])
	assert.True(t, names["codeindex_parse_duration_seconds"])
}
