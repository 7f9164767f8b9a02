package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents a pipeline event
type AnalysisEvent struct {
	EventType         EventType              `json:"event_type"`
	Timestamp         time.Time              `json:"timestamp"`
	RequestID         string                 `json:"request_id,omitempty"`
	MediaURL          string                 `json:"media_url"`
	MediaType         string                 `json:"media_type"`
	State             string                 `json:"state,omitempty"`
	ProcessingTime    time.Duration          `json:"processing_time"`
	Success           bool                   `json:"success"`
	ErrorMessage      string                 `json:"error_message,omitempty"`
	Score             int                    `json:"score"`
	Tier              string                 `json:"tier,omitempty"`
	Outcome           string                 `json:"outcome,omitempty"`
	ExplanationSource string                 `json:"explanation_source,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when a media reference is accepted
	AnalysisStarted EventType = "analysis_started"
	// MediaFetched when raw bytes were retrieved
	MediaFetched EventType = "media_fetched"
	// MediaFetchFailed when retrieval failed
	MediaFetchFailed EventType = "media_fetch_failed"
	// AnalysisCompleted when a score was produced from the image
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisFailed when a stage failed and the neutral result was returned
	AnalysisFailed EventType = "analysis_failed"
	// AnalysisSkipped when the media type bypassed image analysis
	AnalysisSkipped EventType = "analysis_skipped"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"url":             event.MediaURL,
		"media_type":      event.MediaType,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	if event.State != "" {
		fields["state"] = event.State
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	if event.Outcome != "" {
		fields["outcome"] = event.Outcome
	}
	if event.EventType == AnalysisCompleted || event.EventType == AnalysisSkipped {
		fields["deepfake_score"] = event.Score
		fields["tier"] = event.Tier
		fields["explanation_source"] = event.ExplanationSource
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case AnalysisStarted:
		entry.Info("Media analysis started")
	case AnalysisCompleted:
		entry.Info("Media analysis completed")
	case AnalysisSkipped:
		entry.Info("Media analysis skipped image stages")
	case AnalysisFailed:
		entry.Warn("Media analysis failed, returning neutral result")
	case MediaFetched:
		entry.Debug("Media fetched successfully")
	case MediaFetchFailed:
		entry.Warn("Media fetch failed")
	default:
		entry.Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer in subscription
// order before returning. A panicking observer is logged and skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	for _, observer := range observers {
		notify(ctx, observer, event)
	}
}

func notify(ctx context.Context, obs Observer, event AnalysisEvent) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
