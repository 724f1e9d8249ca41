// Package store persists enriched transcription records, one per
// contact, to the hosted results database.
package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Utterance is one diarized turn of a transcript. Speaker keeps the raw
// engine tag so downstream consumers can re-derive roles; Role is the
// heuristic Agent/Customer mapping.
type Utterance struct {
	Speaker    string  `json:"speaker"`
	Role       string  `json:"role"`
	Text       string  `json:"text"`
	StartMs    int     `json:"start_ms"`
	EndMs      int     `json:"end_ms"`
	Confidence float64 `json:"confidence"`
}

// SentimentResult is one engine sentiment annotation.
type SentimentResult struct {
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// Entity is one engine-detected entity.
type Entity struct {
	Type string `json:"entity_type"`
	Text string `json:"text"`
}

// Record is the durable, enriched result of processing one call.
type Record struct {
	ContactID         string    `json:"contact_id"`
	Agent             string    `json:"agent"`
	InitiationTime    time.Time `json:"initiation_timestamp"`
	Queue             string    `json:"queue"`
	DispositionTitle  string    `json:"disposition_title"`
	CampaignName      string    `json:"campaign_name"`
	CampaignID        string    `json:"campaign_id"`
	CustomerEndpoint  string    `json:"customer_endpoint"`
	CallDurationMin   int       `json:"call_duration_min"`
	CallDurationSec   int       `json:"call_duration_sec"`
	HoldTimeSec       int       `json:"hold_time_sec"`
	QueueTimeSec      int       `json:"queue_time_sec"`
	RecordingLocation string    `json:"recording_location"`

	TranscriptText    string            `json:"transcript_text"`
	SpeakerData       []Utterance       `json:"speaker_data"`
	SentimentAnalysis []SentimentResult `json:"sentiment_analysis"`
	Entities          []Entity          `json:"entities"`
	CallSummary       string            `json:"call_summary"`
	PrimaryCategory   string            `json:"primary_category"`
	Categories        []string          `json:"categories"`
	SatisfactionScore float64           `json:"satisfaction_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// recordRow is the gorm representation. Structured fields are stored as
// JSON text so the hosted store needs no custom column types.
type recordRow struct {
	ContactID         string    `gorm:"column:contact_id;primaryKey;size:64"`
	Agent             string    `gorm:"column:agent;size:191"`
	InitiationTime    time.Time `gorm:"column:initiation_timestamp"`
	Queue             string    `gorm:"column:queue;size:191"`
	DispositionTitle  string    `gorm:"column:disposition_title;size:191"`
	CampaignName      string    `gorm:"column:campaign_name;size:191"`
	CampaignID        string    `gorm:"column:campaign_id;size:64"`
	CustomerEndpoint  string    `gorm:"column:customer_endpoint;size:64"`
	CallDurationMin   int       `gorm:"column:call_duration_min"`
	CallDurationSec   int       `gorm:"column:call_duration_sec"`
	HoldTimeSec       int       `gorm:"column:hold_time_sec"`
	QueueTimeSec      int       `gorm:"column:queue_time_sec"`
	RecordingLocation string    `gorm:"column:recording_location;type:text"`

	TranscriptText    string  `gorm:"column:transcript_text;type:text"`
	SpeakerData       string  `gorm:"column:speaker_data;type:text"`
	SentimentAnalysis string  `gorm:"column:sentiment_analysis;type:text"`
	Entities          string  `gorm:"column:entities;type:text"`
	CallSummary       string  `gorm:"column:call_summary;type:text"`
	PrimaryCategory   string  `gorm:"column:primary_category;size:191"`
	Categories        string  `gorm:"column:categories;type:text"`
	SatisfactionScore float64 `gorm:"column:satisfaction_score"`

	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName implements gorm's Tabler interface.
func (recordRow) TableName() string { return "transcriptions" }

func toRow(r Record) (recordRow, error) {
	speakerData, err := json.Marshal(r.SpeakerData)
	if err != nil {
		return recordRow{}, fmt.Errorf("encode speaker data: %w", err)
	}
	sentiment, err := json.Marshal(r.SentimentAnalysis)
	if err != nil {
		return recordRow{}, fmt.Errorf("encode sentiment: %w", err)
	}
	entities, err := json.Marshal(r.Entities)
	if err != nil {
		return recordRow{}, fmt.Errorf("encode entities: %w", err)
	}
	categories, err := json.Marshal(r.Categories)
	if err != nil {
		return recordRow{}, fmt.Errorf("encode categories: %w", err)
	}

	return recordRow{
		ContactID:         r.ContactID,
		Agent:             r.Agent,
		InitiationTime:    r.InitiationTime,
		Queue:             r.Queue,
		DispositionTitle:  r.DispositionTitle,
		CampaignName:      r.CampaignName,
		CampaignID:        r.CampaignID,
		CustomerEndpoint:  r.CustomerEndpoint,
		CallDurationMin:   r.CallDurationMin,
		CallDurationSec:   r.CallDurationSec,
		HoldTimeSec:       r.HoldTimeSec,
		QueueTimeSec:      r.QueueTimeSec,
		RecordingLocation: r.RecordingLocation,
		TranscriptText:    r.TranscriptText,
		SpeakerData:       string(speakerData),
		SentimentAnalysis: string(sentiment),
		Entities:          string(entities),
		CallSummary:       r.CallSummary,
		PrimaryCategory:   r.PrimaryCategory,
		Categories:        string(categories),
		SatisfactionScore: r.SatisfactionScore,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}, nil
}

func (row recordRow) toRecord() Record {
	rec := Record{
		ContactID:         row.ContactID,
		Agent:             row.Agent,
		InitiationTime:    row.InitiationTime,
		Queue:             row.Queue,
		DispositionTitle:  row.DispositionTitle,
		CampaignName:      row.CampaignName,
		CampaignID:        row.CampaignID,
		CustomerEndpoint:  row.CustomerEndpoint,
		CallDurationMin:   row.CallDurationMin,
		CallDurationSec:   row.CallDurationSec,
		HoldTimeSec:       row.HoldTimeSec,
		QueueTimeSec:      row.QueueTimeSec,
		RecordingLocation: row.RecordingLocation,
		TranscriptText:    row.TranscriptText,
		CallSummary:       row.CallSummary,
		PrimaryCategory:   row.PrimaryCategory,
		SatisfactionScore: row.SatisfactionScore,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}

	// Decode failures leave the typed field empty rather than failing
	// the read; the raw text remains available in the database.
	_ = json.Unmarshal([]byte(row.SpeakerData), &rec.SpeakerData)
	_ = json.Unmarshal([]byte(row.SentimentAnalysis), &rec.SentimentAnalysis)
	_ = json.Unmarshal([]byte(row.Entities), &rec.Entities)
	_ = json.Unmarshal([]byte(row.Categories), &rec.Categories)

	return rec
}
