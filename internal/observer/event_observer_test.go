package observer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type recordingObserver struct {
	name   string
	mu     sync.Mutex
	events []AnalysisEvent
}

func (r *recordingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingObserver) GetObserverName() string { return r.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(ctx context.Context, event AnalysisEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string { return "panicking" }

func TestEventPublisher_NotifiesInOrder(t *testing.T) {
	publisher := NewEventPublisher()
	first := &recordingObserver{name: "first"}
	second := &recordingObserver{name: "second"}

	publisher.Subscribe(first)
	publisher.Subscribe(panickingObserver{})
	publisher.Subscribe(second)

	publisher.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted, MediaURL: "https://example.com/a.jpg"})

	for _, obs := range []*recordingObserver{first, second} {
		if len(obs.events) != 1 {
			t.Fatalf("Expected %s to receive 1 event, got %d", obs.name, len(obs.events))
		}
		if obs.events[0].Timestamp.IsZero() {
			t.Errorf("Expected timestamp to be filled in for %s", obs.name)
		}
	}
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	publisher := NewEventPublisher()
	obs := &recordingObserver{name: "gone"}
	publisher.Subscribe(obs)
	publisher.Unsubscribe(obs)

	publisher.NotifyObservers(context.Background(), AnalysisEvent{EventType: AnalysisStarted})
	if len(obs.events) != 0 {
		t.Errorf("Expected no events after unsubscribe, got %d", len(obs.events))
	}
}

func TestLoggingObserver_Levels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	obs := NewLoggingObserver(logger)

	tests := []struct {
		event   EventType
		level   logrus.Level
		message string
	}{
		{AnalysisStarted, logrus.InfoLevel, "Media analysis started"},
		{MediaFetched, logrus.DebugLevel, "Media fetched successfully"},
		{MediaFetchFailed, logrus.WarnLevel, "Media fetch failed"},
		{AnalysisFailed, logrus.WarnLevel, "Media analysis failed, returning neutral result"},
		{AnalysisCompleted, logrus.InfoLevel, "Media analysis completed"},
	}

	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			hook.Reset()
			obs.OnEvent(context.Background(), AnalysisEvent{
				EventType: tt.event,
				RequestID: "req-1",
				MediaURL:  "https://example.com/a.jpg",
				State:     "detecting",
				Score:     64,
				Tier:      "moderate",
			})

			entry := hook.LastEntry()
			if entry == nil {
				t.Fatal("Expected a log entry")
			}
			if entry.Level != tt.level {
				t.Errorf("Expected level %s, got %s", tt.level, entry.Level)
			}
			if entry.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, entry.Message)
			}
			if entry.Data["request_id"] != "req-1" || entry.Data["url"] != "https://example.com/a.jpg" || entry.Data["state"] != "detecting" {
				t.Errorf("Missing context fields: %v", entry.Data)
			}
		})
	}
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := NewMetricsObserver(reg)
	if err != nil {
		t.Fatalf("failed to create observer: %v", err)
	}

	ctx := context.Background()
	obs.OnEvent(ctx, AnalysisEvent{EventType: AnalysisStarted})
	obs.OnEvent(ctx, AnalysisEvent{EventType: AnalysisCompleted, Score: 22, Tier: "low", ExplanationSource: "template", ProcessingTime: time.Millisecond})
	obs.OnEvent(ctx, AnalysisEvent{EventType: AnalysisCompleted, Score: 85, Tier: "high", ExplanationSource: "enhanced"})
	obs.OnEvent(ctx, AnalysisEvent{EventType: AnalysisFailed})
	obs.OnEvent(ctx, AnalysisEvent{EventType: AnalysisSkipped, Score: 45, Tier: "moderate", Outcome: OutcomeStub})
	obs.OnEvent(ctx, AnalysisEvent{EventType: AnalysisSkipped, Tier: "low"})

	checks := []struct {
		labels   []string
		expected float64
	}{
		{[]string{OutcomeScored, "low"}, 1},
		{[]string{OutcomeScored, "high"}, 1},
		{[]string{OutcomeFailed, ""}, 1},
		{[]string{OutcomeStub, "moderate"}, 1},
		{[]string{OutcomeUnsupported, "low"}, 1},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(obs.analyses.WithLabelValues(c.labels...)); got != c.expected {
			t.Errorf("deepfake_analyses_total%v = %f, expected %f", c.labels, got, c.expected)
		}
	}

	if got := testutil.ToFloat64(obs.explanations.WithLabelValues("template")); got != 1 {
		t.Errorf("Expected 1 template explanation, got %f", got)
	}
	if got := testutil.ToFloat64(obs.explanations.WithLabelValues("enhanced")); got != 1 {
		t.Errorf("Expected 1 enhanced explanation, got %f", got)
	}
	if got := testutil.CollectAndCount(obs.scores); got != 1 {
		t.Errorf("Expected score histogram to be collected, got %d", got)
	}

	if _, err := NewMetricsObserver(reg); err == nil {
		t.Error("Expected duplicate registration to fail")
	}
}
