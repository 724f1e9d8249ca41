package pipeline

import (
	"context"
	"fmt"
	"path"
	"time"

	"callsight/internal/calllog"
	"callsight/internal/categorize"
	"callsight/internal/recordings"
	"callsight/internal/store"
	"callsight/internal/transcribe"
)

// processOne runs a single call through fetch, validation,
// transcription, categorization, and persistence. Stages are strictly
// sequential; the first failing stage ends the call's run.
func (p *Pipeline) processOne(ctx context.Context, call calllog.Record) error {
	candidates := p.resolver.Candidates(call.RecordingLocation)
	if len(candidates) == 0 {
		return fmt.Errorf("%w: unusable recording location %q", recordings.ErrNotFound, call.RecordingLocation)
	}

	fetched, err := p.fetcher.Fetch(ctx, candidates)
	if err != nil {
		return err
	}

	verdict := recordings.ValidateAudio(fetched.Data, path.Base(fetched.Path))
	if !verdict.Valid {
		return fmt.Errorf("%w: %s (path %s)", ErrValidationFailed, verdict.Reason, fetched.Path)
	}
	if verdict.FromExtension {
		p.cfg.Logger.Warn("audio accepted on extension only",
			"contact_id", call.ContactID, "path", fetched.Path)
	}

	transcript, err := p.transcriber.Transcribe(ctx, p.publicURL(fetched.Path), fetched.Data)
	if err != nil {
		return err
	}

	labels, err := p.categorizer.Categorize(ctx, transcript.Utterances)
	if err != nil {
		return err
	}

	rec := buildRecord(call, transcript, labels)
	if err := p.records.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("persist record: %w", err)
	}
	return nil
}

// buildRecord merges call metadata with the engine results into the
// durable record shape.
func buildRecord(call calllog.Record, tr *transcribe.Transcript, labels categorize.Result) store.Record {
	rec := store.Record{
		ContactID:         call.ContactID,
		Agent:             call.Agent,
		InitiationTime:    call.InitiationTime,
		Queue:             call.Queue,
		DispositionTitle:  call.DispositionTitle,
		CampaignName:      call.CampaignName,
		CampaignID:        call.CampaignID,
		CustomerEndpoint:  call.CustomerEndpoint,
		CallDurationMin:   call.CallDurationMin,
		CallDurationSec:   call.CallDurationSec,
		HoldTimeSec:       call.HoldTimeSec,
		QueueTimeSec:      call.QueueTimeSec,
		RecordingLocation: call.RecordingLocation,

		TranscriptText:    tr.Text,
		CallSummary:       tr.Summary,
		PrimaryCategory:   labels.Primary,
		Categories:        labels.Categories,
		SatisfactionScore: satisfactionScore(tr.Sentiments),
	}

	for _, u := range tr.Utterances {
		rec.SpeakerData = append(rec.SpeakerData, store.Utterance{
			Speaker:    u.Speaker,
			Role:       u.Role,
			Text:       u.Text,
			StartMs:    u.StartMs,
			EndMs:      u.EndMs,
			Confidence: u.Confidence,
		})
	}
	for _, s := range tr.Sentiments {
		rec.SentimentAnalysis = append(rec.SentimentAnalysis, store.SentimentResult{
			Text:       s.Text,
			Sentiment:  s.Sentiment,
			Confidence: s.Confidence,
		})
	}
	for _, e := range tr.Entities {
		rec.Entities = append(rec.Entities, store.Entity{Type: e.Type, Text: e.Text})
	}
	return rec
}

// satisfactionScore maps the sentiment distribution onto a 1-5 scale.
// 3 is neutral; the score shifts with the positive/negative balance.
// No sentiment data yields 0, meaning unknown.
func satisfactionScore(sentiments []transcribe.Sentiment) float64 {
	if len(sentiments) == 0 {
		return 0
	}
	var pos, neg float64
	for _, s := range sentiments {
		switch s.Sentiment {
		case "POSITIVE":
			pos++
		case "NEGATIVE":
			neg++
		}
	}
	score := 3 + 2*(pos-neg)/float64(len(sentiments))
	if score < 1 {
		score = 1
	}
	if score > 5 {
		score = 5
	}
	return score
}

// attempt wraps processOne with lock bookkeeping and panic recovery.
// The lock is released whatever happens; a panic is converted to a
// failure so one bad call cannot take down the run.
func (p *Pipeline) attempt(ctx context.Context, call calllog.Record) (err error) {
	if !p.locks.TryAcquire(call.ContactID) {
		return fmt.Errorf("contact %s already being processed", call.ContactID)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing contact %s: %v", call.ContactID, r)
		}
		if err != nil && ctx.Err() == nil {
			p.locks.RecordFailure(call.ContactID)
		}
		p.locks.Release(call.ContactID)
	}()

	start := time.Now()
	if err = p.processOne(ctx, call); err != nil {
		return err
	}
	p.cfg.Logger.Info("call processed",
		"contact_id", call.ContactID, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
