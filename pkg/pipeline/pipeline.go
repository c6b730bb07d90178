// Package pipeline orchestrates meeting processing end to end: transcript
// acquisition, speaker alignment, normalization, action detection, assignee
// and deadline resolution, summarization and persistence.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/mint-cli/pkg/assign"
	"github.com/otherjamesbrown/mint-cli/pkg/capability"
	"github.com/otherjamesbrown/mint-cli/pkg/deadline"
	"github.com/otherjamesbrown/mint-cli/pkg/detect"
	mterrors "github.com/otherjamesbrown/mint-cli/pkg/errors"
	"github.com/otherjamesbrown/mint-cli/pkg/logging"
	"github.com/otherjamesbrown/mint-cli/pkg/normalize"
	"github.com/otherjamesbrown/mint-cli/pkg/observability"
	"github.com/otherjamesbrown/mint-cli/pkg/summary"
	"github.com/otherjamesbrown/mint-cli/pkg/tracker"
	"github.com/otherjamesbrown/mint-cli/pkg/transcript"
)

// Store is the persistence surface the pipeline needs.
type Store interface {
	CreateMeeting(ctx context.Context, m *tracker.Meeting) error
	CreateAction(ctx context.Context, a *tracker.Action) error
}

// Request describes one meeting to process. Either Path (a .vtt or .txt
// transcript) or AudioPath must be set; Path wins when both are.
type Request struct {
	Path      string
	AudioPath string
	Title     string
	Date      time.Time
}

// Result is the outcome of one pipeline run.
type Result struct {
	RunID      string
	Meeting    *tracker.Meeting
	Actions    []tracker.Action
	Summary    *summary.MeetingSummary
	Transcript *transcript.Transcript
}

// Config tunes pipeline behavior.
type Config struct {
	// MergeGapSeconds is the max silence between same-speaker segments that
	// still merges them.
	MergeGapSeconds float64
	// Persist disables database writes when false (dry runs).
	Persist bool
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		MergeGapSeconds: transcript.DefaultMergeGapSeconds,
		Persist:         true,
	}
}

// Pipeline wires the processing stages together.
type Pipeline struct {
	transcriber capability.Transcriber
	diarizer    capability.Diarizer
	normalizer  *normalize.Normalizer
	detector    *detect.Detector
	assigner    *assign.Extractor
	deadlines   *deadline.Resolver
	summaries   *summary.Service
	store       Store
	tracer      *observability.Tracer
	metrics     *Metrics
	logger      logging.Logger
	config      Config
}

// Deps carries the pipeline's collaborators.
type Deps struct {
	Transcriber capability.Transcriber
	Diarizer    capability.Diarizer
	Normalizer  *normalize.Normalizer
	Detector    *detect.Detector
	Assigner    *assign.Extractor
	Deadlines   *deadline.Resolver
	Summaries   *summary.Service
	Store       Store
	Tracer      *observability.Tracer
	Metrics     *Metrics
	Logger      logging.Logger
}

// New builds a Pipeline. Detector is required; everything else degrades or
// is skipped when absent.
func New(deps Deps, config Config) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.Tracer == nil {
		deps.Tracer = observability.NewTracer()
	}
	if deps.Metrics == nil {
		deps.Metrics = NopMetrics()
	}
	if deps.Normalizer == nil {
		deps.Normalizer = normalize.New()
	}
	if deps.Assigner == nil {
		deps.Assigner = assign.NewExtractor()
	}
	if deps.Deadlines == nil {
		deps.Deadlines = deadline.NewResolver()
	}
	if config.MergeGapSeconds <= 0 {
		config.MergeGapSeconds = transcript.DefaultMergeGapSeconds
	}
	return &Pipeline{
		transcriber: deps.Transcriber,
		diarizer:    deps.Diarizer,
		normalizer:  deps.Normalizer,
		detector:    deps.Detector,
		assigner:    deps.Assigner,
		deadlines:   deps.Deadlines,
		summaries:   deps.Summaries,
		store:       deps.Store,
		tracer:      deps.Tracer,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		config:      config,
	}
}

// Process runs the full pipeline for one meeting.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.New().String()
	meetingFile := req.Path
	if meetingFile == "" {
		meetingFile = req.AudioPath
	}
	meetingFile = filepath.Base(meetingFile)

	ctx, span := p.tracer.StartMeetingSpan(ctx, meetingFile, runID)
	helper := observability.NewSpanHelper(span)
	defer span.End()

	start := time.Now()
	log := p.logger.With(
		logging.F("run_id", runID),
		logging.F("meeting_file", meetingFile),
	)
	log.Info("processing meeting")

	result, err := p.process(ctx, req, meetingFile, runID, log)
	if err != nil {
		p.metrics.MeetingsFailed.Inc()
		helper.SetError(err, stageOf(err))
		return nil, err
	}

	elapsed := time.Since(start)
	p.metrics.MeetingsProcessed.Inc()
	p.metrics.ProcessingSeconds.Observe(elapsed.Seconds())
	helper.SetCounts(len(result.Transcript.Segments), 0, len(result.Actions))
	helper.SetSpeakers(len(result.Transcript.Speakers))
	helper.SetDuration(elapsed.Milliseconds())
	helper.SetSuccess()

	log.Info("meeting processed",
		logging.F("actions", len(result.Actions)),
		logging.F("speakers", len(result.Transcript.Speakers)),
		logging.F("duration_ms", elapsed.Milliseconds()),
	)
	return result, nil
}

func (p *Pipeline) process(ctx context.Context, req Request, meetingFile, runID string, log logging.Logger) (*Result, error) {
	tr, err := p.acquireTranscript(ctx, req)
	if err != nil {
		p.metrics.StageFailures.WithLabelValues("transcript").Inc()
		return nil, err
	}

	tr.Segments = transcript.MergeSegments(tr.Segments, p.config.MergeGapSeconds)

	stageCtx, stageSpan := p.tracer.StartStageSpan(ctx, "normalize")
	segments := p.normalizer.NormalizeSegments(stageCtx, tr.Segments)
	fullText, _ := p.normalizer.NormalizeText(stageCtx, tr.FullText)
	stageSpan.End()

	stageCtx, stageSpan = p.tracer.StartStageSpan(ctx, "detect")
	candidates, err := p.detector.DetectActions(stageCtx, segments)
	stageSpan.End()
	if err != nil {
		p.metrics.StageFailures.WithLabelValues("detect").Inc()
		return nil, err
	}
	p.metrics.ActionsDetected.Add(float64(len(candidates)))

	actions := p.resolveActions(ctx, meetingFile, candidates, tr.Speakers)

	var meetingSummary *summary.MeetingSummary
	if p.summaries != nil {
		stageCtx, stageSpan = p.tracer.StartStageSpan(ctx, "summarize")
		meetingSummary = p.summaries.Generate(stageCtx, fullText)
		stageSpan.End()
	} else {
		meetingSummary = &summary.MeetingSummary{}
	}

	meeting := p.buildMeeting(req, meetingFile, tr, meetingSummary)

	if p.config.Persist && p.store != nil {
		if err := p.persist(ctx, meeting, actions); err != nil {
			p.metrics.StageFailures.WithLabelValues("persist").Inc()
			return nil, err
		}
	}

	return &Result{
		RunID:      runID,
		Meeting:    meeting,
		Actions:    actions,
		Summary:    meetingSummary,
		Transcript: tr,
	}, nil
}

// acquireTranscript loads a transcript file or transcribes and diarizes
// audio. Diarization failure degrades to a single generic speaker.
func (p *Pipeline) acquireTranscript(ctx context.Context, req Request) (*transcript.Transcript, error) {
	if req.Path != "" {
		f, err := os.Open(req.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open transcript: %w", err)
		}
		defer f.Close()

		switch strings.ToLower(filepath.Ext(req.Path)) {
		case ".vtt":
			return transcript.ParseVTT(f)
		case ".txt":
			return transcript.ParseTXT(f)
		default:
			return nil, fmt.Errorf("unsupported transcript format %q: %w",
				filepath.Ext(req.Path), mterrors.ErrValidation)
		}
	}

	if req.AudioPath == "" {
		return nil, fmt.Errorf("no transcript or audio input: %w", mterrors.ErrValidation)
	}
	if p.transcriber == nil {
		return nil, fmt.Errorf("audio input needs a transcription capability: %w",
			mterrors.ErrCapabilityUnavailable)
	}

	stageCtx, stageSpan := p.tracer.StartCapabilitySpan(ctx, "transcribe")
	asr, err := p.transcriber.Transcribe(stageCtx, req.AudioPath)
	stageSpan.End()
	if err != nil {
		return nil, mterrors.NewStageError("transcribe", req.AudioPath, err)
	}

	var turns []capability.SpeakerTurn
	if p.diarizer != nil {
		stageCtx, stageSpan = p.tracer.StartCapabilitySpan(ctx, "diarize")
		turns, err = p.diarizer.Diarize(stageCtx, req.AudioPath)
		stageSpan.End()
		if err != nil {
			p.logger.Warn("diarization failed, attributing to a single speaker",
				logging.Err(err))
			turns = nil
		}
	}

	return transcript.Align(asr, turns), nil
}

// resolveActions turns detection candidates into tracked actions, resolving
// assignees and deadlines for all candidates concurrently.
func (p *Pipeline) resolveActions(ctx context.Context, meetingFile string, candidates []detect.Candidate, speakers []string) []tracker.Action {
	actions := make([]tracker.Action, len(candidates))

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func(i int, candidate detect.Candidate) {
			defer wg.Done()

			assignees := p.assigner.ExtractAssignees(ctx, candidate.Text, speakers)
			due := p.deadlines.ExtractDeadline(ctx, candidate.Text)

			actions[i] = tracker.Action{
				MeetingFile: meetingFile,
				Text:        candidate.Text,
				Assignees:   assignees,
				Deadline:    due,
				Urgency:     deadline.ClassifyUrgency(due, time.Now()),
				Status:      tracker.StatusOpen,
				Confidence:  candidate.Confidence,
				Speaker:     candidate.SpeakerID,
				StartTime:   candidate.StartTime,
				EndTime:     candidate.EndTime,
			}
		}(i, candidate)
	}
	wg.Wait()

	return actions
}

func (p *Pipeline) buildMeeting(req Request, meetingFile string, tr *transcript.Transcript, s *summary.MeetingSummary) *tracker.Meeting {
	title := req.Title
	if title == "" {
		title = strings.TrimSuffix(meetingFile, filepath.Ext(meetingFile))
	}
	return &tracker.Meeting{
		Filename:        meetingFile,
		Title:           title,
		Date:            req.Date,
		DurationSeconds: tr.DurationSeconds,
		Participants:    tr.Speakers,
		Summary:         s.ExecutiveSummary,
		AgendaItems:     s.AgendaItems,
		Decisions:       s.Decisions,
		Risks:           s.Risks,
		NextSteps:       s.NextSteps,
		TranscriptPath:  req.Path,
		AudioPath:       req.AudioPath,
		SpeakingTime:    tr.SpeakingTime(),
	}
}

func (p *Pipeline) persist(ctx context.Context, meeting *tracker.Meeting, actions []tracker.Action) error {
	if err := p.store.CreateMeeting(ctx, meeting); err != nil {
		return fmt.Errorf("failed to store meeting: %w", err)
	}
	for i := range actions {
		actions[i].MeetingID = &meeting.ID
		if err := p.store.CreateAction(ctx, &actions[i]); err != nil {
			return fmt.Errorf("failed to store action: %w", err)
		}
	}
	return nil
}

// stageOf extracts the stage label from a stage error, or "pipeline".
func stageOf(err error) string {
	var stageErr *mterrors.StageError
	if errors.As(err, &stageErr) {
		return stageErr.Stage
	}
	return "pipeline"
}
