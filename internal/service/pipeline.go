package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anime-shed/deepfake-inspector-go/internal/analyzer"
	"github.com/anime-shed/deepfake-inspector-go/internal/decoder"
	apperrors "github.com/anime-shed/deepfake-inspector-go/internal/errors"
	"github.com/anime-shed/deepfake-inspector-go/internal/explain"
	"github.com/anime-shed/deepfake-inspector-go/internal/face"
	"github.com/anime-shed/deepfake-inspector-go/internal/logger"
	"github.com/anime-shed/deepfake-inspector-go/internal/observer"
	"github.com/anime-shed/deepfake-inspector-go/internal/storage"
	"github.com/anime-shed/deepfake-inspector-go/internal/strategy"
	"github.com/anime-shed/deepfake-inspector-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// Explanation prefixes naming the failure category
const (
	fetchFailurePrefix      = "Error analyzing media: "
	processingFailurePrefix = "Error processing image: "
)

// AnalysisService scores media references. It never returns an error:
// every failure becomes a zero-score result with a descriptive explanation.
type AnalysisService interface {
	Analyze(ctx context.Context, ref models.MediaReference) models.AnalysisResult
	Run(ctx context.Context, ref models.MediaReference) strategy.Outcome
}

// Explainer produces explanation text for a score
type Explainer interface {
	Explain(ctx context.Context, in explain.Input) explain.Explanation
}

// Dependencies are the collaborators one pipeline is built from
type Dependencies struct {
	Fetcher   storage.MediaFetcher
	Decoder   decoder.ImageDecoder
	Detector  face.Detector
	Analyzer  analyzer.ArtifactAnalyzer
	Explainer Explainer
	Events    observer.Subject
}

// AnalysisPipeline runs Fetching, Decoding, Detecting, Scoring and
// Explaining for images and dispatches other types to their strategies
type AnalysisPipeline struct {
	deps       Dependencies
	strategies *strategy.AnalysisContext
}

func NewAnalysisPipeline(deps Dependencies) *AnalysisPipeline {
	if deps.Analyzer == nil {
		deps.Analyzer = analyzer.NewArtifactAnalyzer()
	}
	if deps.Decoder == nil {
		deps.Decoder = decoder.New()
	}
	if deps.Events == nil {
		deps.Events = observer.NewEventPublisher()
	}
	p := &AnalysisPipeline{deps: deps}
	p.strategies = strategy.NewAnalysisContext(&imageStrategy{pipeline: p})
	return p
}

// Analyze returns only the result of Run
func (p *AnalysisPipeline) Analyze(ctx context.Context, ref models.MediaReference) models.AnalysisResult {
	return p.Run(ctx, ref).Result
}

// Run analyses ref and reports the full outcome, including the state trace
func (p *AnalysisPipeline) Run(ctx context.Context, ref models.MediaReference) strategy.Outcome {
	start := time.Now()
	base := observer.AnalysisEvent{
		RequestID: logger.RequestIDFromContext(ctx),
		MediaURL:  ref.URL,
		MediaType: string(ref.DeclaredType),
	}

	started := base
	started.EventType = observer.AnalysisStarted
	p.deps.Events.NotifyObservers(ctx, started)

	outcome := p.strategies.ExecuteAnalysis(ctx, ref)

	done := base
	done.ProcessingTime = time.Since(start)
	done.Score = outcome.Result.DeepfakeScore
	done.Tier = string(outcome.Tier)
	done.ExplanationSource = string(outcome.ExplanationSource)
	switch {
	case !ref.IsSupported():
		done.EventType = observer.AnalysisSkipped
		done.Success = true
		done.Outcome = observer.OutcomeUnsupported
		if outcome.Err != nil {
			done.ErrorMessage = outcome.Err.Error()
		}
	case outcome.Err != nil:
		done.EventType = observer.AnalysisFailed
		done.ErrorMessage = outcome.Err.Error()
		if state, ok := outcome.FailedAt(); ok {
			done.State = string(state)
		}
	case ref.DeclaredType == models.MediaTypeVideo:
		done.EventType = observer.AnalysisSkipped
		done.Success = true
		done.Outcome = observer.OutcomeStub
	default:
		done.EventType = observer.AnalysisCompleted
		done.Success = true
	}
	p.deps.Events.NotifyObservers(ctx, done)

	return outcome
}

// imageStrategy is the full pipeline for declared images
type imageStrategy struct {
	pipeline *AnalysisPipeline
}

func (s *imageStrategy) GetStrategyName() string {
	return "image_analysis"
}

func (s *imageStrategy) Analyze(ctx context.Context, ref models.MediaReference) (outcome strategy.Outcome) {
	r := &run{ctx: ctx, ref: ref, deps: &s.pipeline.deps}
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.FromContext(ctx).WithField("url", ref.URL).WithField("panic", recovered).Error("Pipeline stage panicked")
			outcome = r.fail(processingFailurePrefix, apperrors.NewInternalError("unexpected fault", fmt.Errorf("%v", recovered)))
		}
	}()
	return r.execute()
}

// run is the state of one image analysis
type run struct {
	ctx   context.Context
	ref   models.MediaReference
	deps  *Dependencies
	trace []strategy.State
}

func (r *run) enter(state strategy.State) {
	r.trace = append(r.trace, state)
	logger.FromContext(r.ctx).WithField("url", r.ref.URL).WithField("state", state).Debug("Pipeline state entered")
}

// fail moves to Failed then Done, masking err into the neutral result
func (r *run) fail(prefix string, err error) strategy.Outcome {
	r.trace = append(r.trace, strategy.StateFailed, strategy.StateDone)
	return strategy.Outcome{
		Result:            models.NewNeutralResult(prefix + reason(err)),
		Trace:             r.trace,
		Err:               err,
		Tier:              explain.TierFor(0),
		ExplanationSource: explain.SourceTemplate,
	}
}

func (r *run) execute() strategy.Outcome {
	r.enter(strategy.StateFetching)
	media, err := r.deps.Fetcher.Fetch(r.ctx, r.ref.URL)
	if err != nil {
		r.publish(observer.MediaFetchFailed, err)
		return r.fail(fetchFailurePrefix, err)
	}
	r.publish(observer.MediaFetched, nil)

	r.enter(strategy.StateDecoding)
	img, err := r.deps.Decoder.Decode(media.Data)
	if err != nil {
		return r.fail(processingFailurePrefix, err)
	}

	r.enter(strategy.StateDetecting)
	detections, err := r.deps.Detector.Detect(r.ctx, img)
	if err != nil {
		return r.fail(processingFailurePrefix, err)
	}
	if len(detections) > 0 {
		logger.FromContext(r.ctx).WithFields(logrus.Fields{
			"faces":   len(detections),
			"top_box": detections[0].Box.String(),
		}).Debug("Faces detected")
	}

	r.enter(strategy.StateScoring)
	report, err := r.deps.Analyzer.Analyze(r.ctx, img, detections)
	if err != nil {
		return r.fail(processingFailurePrefix, apperrors.NewInternalError("scoring interrupted", err))
	}

	r.enter(strategy.StateExplaining)
	explanation := explain.Explanation{
		Text:   explain.Template(report.DeepfakeScore, detections),
		Tier:   explain.TierFor(report.DeepfakeScore),
		Source: explain.SourceTemplate,
	}
	if r.deps.Explainer != nil {
		explanation = r.deps.Explainer.Explain(r.ctx, explain.Input{
			Score:      report.DeepfakeScore,
			Detections: detections,
			Artifacts:  artifactSummaries(report),
		})
	}

	r.enter(strategy.StateDone)
	return strategy.Outcome{
		Result: models.AnalysisResult{
			DeepfakeScore:     report.DeepfakeScore,
			Explanation:       explanation.Text,
			SuspiciousRegions: regions(detections),
		},
		Trace:             r.trace,
		Tier:              explanation.Tier,
		ExplanationSource: explanation.Source,
	}
}

func (r *run) publish(eventType observer.EventType, err error) {
	event := observer.AnalysisEvent{
		EventType: eventType,
		RequestID: logger.RequestIDFromContext(r.ctx),
		MediaURL:  r.ref.URL,
		MediaType: string(r.ref.DeclaredType),
		State:     string(strategy.StateFetching),
		Success:   err == nil,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	r.deps.Events.NotifyObservers(r.ctx, event)
}

// regions converts every detection, in detector order
func regions(detections []face.Detection) []models.SuspiciousRegion {
	out := make([]models.SuspiciousRegion, 0, len(detections))
	for _, d := range detections {
		out = append(out, models.SuspiciousRegion{
			X:          d.Box.X,
			Y:          d.Box.Y,
			Width:      d.Box.Width,
			Height:     d.Box.Height,
			Confidence: d.Confidence,
		})
	}
	return out
}

func artifactSummaries(report analyzer.Report) []string {
	out := make([]string, 0, len(report.Scores))
	for _, s := range report.Scores {
		out = append(out, fmt.Sprintf("%s (score %.2f)", s.Name, s.Value))
	}
	return out
}

// reason strips the error type prefix for use in an explanation
func reason(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Reason()
	}
	return err.Error()
}
