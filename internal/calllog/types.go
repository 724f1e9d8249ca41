// Package calllog reads call metadata from the upstream call system's
// database. The table is owned by the dialer platform and is strictly
// read-only from callsight's perspective.
package calllog

import (
	"regexp"
	"time"
)

// Record is one row of the upstream call log.
type Record struct {
	ContactID         string    `gorm:"column:contact_id;primaryKey;size:64" json:"contact_id"`
	Agent             string    `gorm:"column:agent;size:191" json:"agent"`
	InitiationTime    time.Time `gorm:"column:initiation_timestamp" json:"initiation_timestamp"`
	Queue             string    `gorm:"column:queue;size:191" json:"queue"`
	DispositionTitle  string    `gorm:"column:disposition_title;size:191" json:"disposition_title"`
	CampaignName      string    `gorm:"column:campaign_name;size:191" json:"campaign_name"`
	CampaignID        string    `gorm:"column:campaign_id;size:64" json:"campaign_id"`
	CustomerEndpoint  string    `gorm:"column:customer_endpoint;size:64" json:"customer_endpoint"`
	CallDurationMin   int       `gorm:"column:call_duration_min" json:"call_duration_min"`
	CallDurationSec   int       `gorm:"column:call_duration_sec" json:"call_duration_sec"`
	HoldTimeSec       int       `gorm:"column:hold_time_sec" json:"hold_time_sec"`
	QueueTimeSec      int       `gorm:"column:queue_time_sec" json:"queue_time_sec"`
	RecordingLocation string    `gorm:"column:recording_location;type:text" json:"recording_location"`
}

// TableName implements gorm's Tabler interface.
func (Record) TableName() string { return "call_logs" }

// audioFilePattern matches the recording file naming the dialer platform
// produces. Anything else in recording_location is treated as
// non-transcribable, not as an error.
var audioFilePattern = regexp.MustCompile(`(?i)\.(wav|mp3|flac|ogg|m4a|mp4)$`)

// HasRecording reports whether the record points at a plausible audio file.
func (r Record) HasRecording() bool {
	return r.RecordingLocation != "" && audioFilePattern.MatchString(r.RecordingLocation)
}

// Duration returns the total call duration.
func (r Record) Duration() time.Duration {
	return time.Duration(r.CallDurationMin)*time.Minute + time.Duration(r.CallDurationSec)*time.Second
}
