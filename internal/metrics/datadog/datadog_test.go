package datadog

import (
	"context"
	"errors"
	"net/http"
	"os"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

// fakeSubmitter captures payloads submitted by Backend.Flush().
type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []datadogV2.MetricPayload
	err      error
}

func (f *fakeSubmitter) SubmitMetrics(_ context.Context, body datadogV2.MetricPayload, _ ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, body)
	return datadogV2.IntakePayloadAccepted{}, nil, f.err
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func (f *fakeSubmitter) last() (datadogV2.MetricPayload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.payloads) == 0 {
		return datadogV2.MetricPayload{}, false
	}
	return f.payloads[len(f.payloads)-1], true
}

func newTestBackend(t *testing.T, sub metricsSubmitter) *Backend {
	t.Helper()
	b, err := NewBackend(context.Background(), Options{
		JobName:    "test",
		FlushEvery: time.Hour,
		now:        func() time.Time { return time.Unix(1700000000, 0) },
		submitter:  sub,
	})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	t.Cleanup(func() {
		select {
		case <-b.stopCh:
		default:
			_ = b.Close()
		}
	})
	return b
}

// TestResolveEnvTag verifies environment-tag precedence and defaults.
//
// Edge cases:
//   - ENV wins over DD_ENV.
//   - Whitespace-only env vars are ignored.
//   - If neither is set, "env:unknown" is returned.
func TestResolveEnvTag(t *testing.T) {
	oldENV := os.Getenv("ENV")
	oldDDENV := os.Getenv("DD_ENV")
	t.Cleanup(func() {
		os.Setenv("ENV", oldENV)
		os.Setenv("DD_ENV", oldDDENV)
	})

	cases := []struct {
		name  string
		env   string
		ddEnv string
		want  string
	}{
		{"env wins", "prod", "staging", "env:prod"},
		{"dd_env fallback", "", "staging", "env:staging"},
		{"whitespace ignored", "  ", " ", "env:unknown"},
		{"neither set", "", "", "env:unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			os.Setenv("ENV", tc.env)
			os.Setenv("DD_ENV", tc.ddEnv)
			if got := resolveEnvTag(); got != tc.want {
				t.Errorf("resolveEnvTag()=%q, want %q", got, tc.want)
			}
		})
	}
}

func TestFlushEmptySubmitsNothing(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if sub.count() != 0 {
		t.Fatalf("submissions=%d, want 0", sub.count())
	}
}

func TestFlushSubmitsBufferedCounts(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)

	b.IncStep("read_primary")
	b.IncStep("read_primary")
	b.AddRecords("bureau.csv", 120)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if sub.count() != 1 {
		t.Fatalf("submissions=%d, want 1", sub.count())
	}

	payload, ok := sub.last()
	if !ok {
		t.Fatal("no payload captured")
	}
	got := map[string]float64{}
	for _, s := range payload.Series {
		got[s.Metric] = *s.Points[0].Value
	}
	if got["loanscore.step.total"] != 2 {
		t.Errorf("step.total=%v, want 2", got["loanscore.step.total"])
	}
	if got["loanscore.records.total"] != 120 {
		t.Errorf("records.total=%v, want 120", got["loanscore.records.total"])
	}

	// buffers reset after a flush
	if err := b.Flush(); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if sub.count() != 1 {
		t.Fatalf("submissions after empty flush=%d, want 1", sub.count())
	}
}

func TestFlushDropsWindowOnSubmitError(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{err: errors.New("intake down")}
	b := newTestBackend(t, sub)

	b.IncStep("assemble")
	if err := b.Flush(); err == nil {
		t.Fatal("Flush: want error")
	}

	sub.mu.Lock()
	sub.err = nil
	sub.mu.Unlock()
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush after reset: %v", err)
	}
	if sub.count() != 1 {
		t.Fatalf("submissions=%d, want 1 (failed window dropped, not retried)", sub.count())
	}
}

func TestIgnoredMeasurements(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)

	b.IncStep("")
	b.AddRecords("", 10)
	b.AddRecords("bureau.csv", 0)
	b.AddRecords("bureau.csv", -5)
	b.ObserveDuration("", 1)
	b.ObserveDuration("assemble", -1)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if sub.count() != 0 {
		t.Fatalf("submissions=%d, want 0 (all measurements invalid)", sub.count())
	}
}

func TestBuildSeriesDurations(t *testing.T) {
	t.Parallel()

	b := &Backend{baseTags: []string{"env:test", "job:loanscore"}}
	s := snapshot{
		durationSamples: map[string][]float64{
			"summarize_bureau.csv": {0.3, 0.1, 0.2},
		},
	}

	series := b.buildSeries(s, 1700000000)
	if len(series) != 6 {
		t.Fatalf("series=%d, want 6 (p50 p90 p95 p99 max samples)", len(series))
	}

	byName := map[string]datadogV2.MetricSeries{}
	for _, ms := range series {
		byName[ms.Metric] = ms
	}

	max := byName["loanscore.step.duration_seconds.max"]
	if *max.Points[0].Value != 0.3 {
		t.Errorf("max=%v, want 0.3", *max.Points[0].Value)
	}
	samples := byName["loanscore.step.duration_seconds.samples"]
	if *samples.Points[0].Value != 3 {
		t.Errorf("samples=%v, want 3", *samples.Points[0].Value)
	}

	wantTags := []string{"env:test", "job:loanscore", "step:summarize_bureau.csv"}
	if !reflect.DeepEqual(max.Tags, wantTags) {
		t.Errorf("tags=%v, want %v", max.Tags, wantTags)
	}
	if *max.Points[0].Timestamp != 1700000000 {
		t.Errorf("timestamp=%v, want 1700000000", *max.Points[0].Timestamp)
	}
}

func TestAddPercentilesLeavesInputUnsorted(t *testing.T) {
	t.Parallel()

	in := []float64{0.9, 0.1, 0.5}
	var series []datadogV2.MetricSeries
	addPercentiles(&series, []string{"env:test"}, "loanscore.step.duration_seconds", in, 1700000000)

	if sort.Float64sAreSorted(in) {
		t.Error("input slice was sorted in place")
	}
	if len(series) != 6 {
		t.Fatalf("series=%d, want 6", len(series))
	}
}

func TestPercentileNearestRank(t *testing.T) {
	t.Parallel()

	s := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.5, 6},
		{0.9, 9},
		{1, 10},
	}
	for _, tc := range cases {
		if got := percentileNearestRank(s, tc.p); got != tc.want {
			t.Errorf("percentileNearestRank(p=%v)=%v, want %v", tc.p, got, tc.want)
		}
	}
	if got := percentileNearestRank(nil, 0.5); got != 0 {
		t.Errorf("empty samples: got %v, want 0", got)
	}
}

func TestWithTagsDoesNotMutateBase(t *testing.T) {
	t.Parallel()

	base := []string{"env:test", "job:loanscore"}
	got := withTags(base, "step:assemble", "status:ok")

	want := []string{"env:test", "job:loanscore", "step:assemble", "status:ok"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("withTags=%v, want %v", got, want)
	}
	if !reflect.DeepEqual(base, []string{"env:test", "job:loanscore"}) {
		t.Errorf("base mutated: %v", base)
	}
}

func TestParseTagsCSV(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"env:prod", []string{"env:prod"}},
		{"env:prod, service:loanscore ,", []string{"env:prod", "service:loanscore"}},
	}
	for _, tc := range cases {
		if got := ParseTagsCSV(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ParseTagsCSV(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCloseFlushesTail(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b, err := NewBackend(context.Background(), Options{
		JobName:    "test",
		FlushEvery: time.Hour,
		now:        func() time.Time { return time.Unix(1700000000, 0) },
		submitter:  sub,
	})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.ObserveDuration("assemble", 1.25)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if sub.count() != 1 {
		t.Fatalf("submissions=%d, want 1 tail flush", sub.count())
	}
}

func TestPeriodicFlushLoop(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b, err := NewBackend(context.Background(), Options{
		JobName:    "test",
		FlushEvery: time.Hour,
		now:        func() time.Time { return time.Unix(1700000000, 0) },
		newTicker: func(time.Duration) *time.Ticker {
			return time.NewTicker(5 * time.Millisecond)
		},
		submitter: sub,
	})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}

	b.IncStep("assemble")

	deadline := time.After(2 * time.Second)
	for sub.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("loop never flushed after tick")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
