package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"docsdiff/pkg/models"
)

func TestLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(models.Log{Level: "debug", Format: FormatAuto}, &buf)
	require.NoError(t, err)

	logger.Info().Str("repo", "docs-a").Msg("test message")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "test message", entry["message"])
	assert.Equal(t, "docs-a", entry["repo"])
	assert.Equal(t, "docsdiff", entry["service"])
	assert.Equal(t, "info", entry["level"])
}

func TestLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(models.Log{Level: "info", Format: FormatConsole}, &buf)
	require.NoError(t, err)

	logger.Info().Str("repo", "docs-a").Msg("cloned")

	out := buf.String()
	assert.Contains(t, out, "cloned")
	assert.Contains(t, out, "repo=docs-a")
	assert.False(t, strings.HasPrefix(out, "{"))
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(models.Log{Level: "WARN", Format: FormatJSON}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())
	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")

	_, err = NewLogger(models.Log{Level: "loud"}, &buf)
	assert.Error(t, err)
}

func TestPassMetrics(t *testing.T) {
	m := NewPassMetrics()
	m.ObserveListing(3)
	m.ObserveRepository(models.RepoResult{Name: "docs-a", Cloned: true})
	m.ObserveRepository(models.RepoResult{Name: "docs-b", Pair: models.ResolvedPair{Head: "c1", FetchHead: "c2"}, DiffBytes: 42})
	m.ObserveRepository(models.RepoResult{Name: "docs-c", Err: errors.New("fetch failed")})

	cutoff := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	report := &models.PassReport{
		Cutoff:    cutoff,
		Committed: true,
		Duration:  1500 * time.Millisecond,
		Results:   []models.RepoResult{{Name: "docs-c", Err: errors.New("fetch failed")}},
	}
	m.ObservePass(report, nil)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.listed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.repositories.WithLabelValues(models.OutcomeCloned)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.repositories.WithLabelValues(models.OutcomeUpdated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.repositories.WithLabelValues(models.OutcomeFailed)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.repositories.WithLabelValues(models.OutcomeUnchanged)))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.diffBytes.WithLabelValues("docs-b")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commits))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.duration))
	assert.Equal(t, float64(cutoff.Unix()), testutil.ToFloat64(m.lastCutoff))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.lastSuccess))

	m.ObservePass(&models.PassReport{Cutoff: cutoff}, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lastSuccess))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commits))
}

func TestWriteTextfile(t *testing.T) {
	m := NewPassMetrics()
	m.ObserveListing(2)

	path := filepath.Join(t.TempDir(), "docsdiff.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "docsdiff_repositories_listed 2")
	assert.Contains(t, string(data), `docsdiff_repositories_processed_total{outcome="failed"} 0`)
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	ctx, parent := StartSpan(t.Context(), "sync.pass", "cutoff", "2024-01-10T00:00:00Z")
	_, child := StartSpan(ctx, "sync.repository", "repo", "docs-a")
	EndSpan(child, errors.New("fetch failed"))
	EndSpan(parent, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "sync.repository", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
	assert.Len(t, spans[0].Events(), 1)
}

func TestSetupTracingWritesSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "docsdiff.jsonl")
	shutdown, err := SetupTracing(models.Tracing{File: path})
	require.NoError(t, err)

	ctx, parent := StartSpan(t.Context(), "sync.pass", "org", "awsdocs")
	_, child := StartSpan(ctx, "sync.repository", "repo", "docs-a")
	EndSpan(child, nil)
	EndSpan(parent, nil)
	require.NoError(t, shutdown(t.Context()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var names []string
	dec := json.NewDecoder(f)
	for dec.More() {
		var span struct {
			Name     string
			Resource []struct {
				Key   string
				Value struct{ Value interface{} }
			}
		}
		require.NoError(t, dec.Decode(&span))
		names = append(names, span.Name)
		service := ""
		for _, attr := range span.Resource {
			if attr.Key == "service.name" {
				service, _ = attr.Value.Value.(string)
			}
		}
		assert.Equal(t, "docsdiff", service)
	}
	assert.ElementsMatch(t, []string{"sync.pass", "sync.repository"}, names)
}

func TestSetupTracingDisabled(t *testing.T) {
	previous := otel.GetTracerProvider()

	shutdown, err := SetupTracing(models.Tracing{})
	require.NoError(t, err)
	assert.Equal(t, previous, otel.GetTracerProvider())
	assert.NoError(t, shutdown(t.Context()))
}
