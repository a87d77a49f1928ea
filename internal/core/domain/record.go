package domain

import (
	"regexp"
	"time"
)

// RecordKind tags the known log record shapes. Different logging components
// emit differently shaped documents; unrecognized shapes are kept so the
// pipeline can skip them instead of erroring.
type RecordKind int

const (
	RecordUnrecognized RecordKind = iota
	RecordAccessLog               // gateway access log, token appears in the request uri
	RecordMessage                 // free-form component log, token appears inside the message text
)

func (k RecordKind) String() string {
	switch k {
	case RecordAccessLog:
		return "access_log"
	case RecordMessage:
		return "message"
	default:
		return "unrecognized"
	}
}

// LogRecord is one normalized hit from the log backend.
type LogRecord struct {
	Timestamp time.Time
	Kind      RecordKind
	URI       string
	Message   string
}

// ParseLogRecord normalizes a raw record source defensively. Fields that are
// absent or of an unexpected type are ignored; a record with neither a uri
// nor a message is tagged unrecognized and will be skipped downstream.
func ParseLogRecord(source map[string]interface{}) LogRecord {
	rec := LogRecord{Kind: RecordUnrecognized}

	if raw, ok := source["@timestamp"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			rec.Timestamp = ts
		}
	}
	if uri, ok := source["uri"].(string); ok && uri != "" {
		rec.URI = uri
		rec.Kind = RecordAccessLog
	}
	if msg, ok := source["message"].(string); ok && msg != "" {
		rec.Message = msg
		if rec.Kind == RecordUnrecognized {
			rec.Kind = RecordMessage
		}
	}
	return rec
}

// TokenMatcher extracts api tokens for one instance from log record text.
// Tokens appear as the trailing segment of instance-scoped request paths:
// .../waInstance<ID>/<method>/<token>, where the token is 32+ hex characters.
type TokenMatcher struct {
	re *regexp.Regexp
}

// NewTokenMatcher compiles the extraction pattern for the given instance.
func NewTokenMatcher(id InstanceID) TokenMatcher {
	return TokenMatcher{
		re: regexp.MustCompile(`(?:/| )waInstance` + regexp.QuoteMeta(id.String()) + `/[A-Za-z]+/([a-fA-F0-9]{32,})`),
	}
}

// FindToken scans the record's candidate text fields in a fixed order (uri
// first, then message) and returns the first token found.
func (m TokenMatcher) FindToken(rec LogRecord) (string, bool) {
	for _, text := range []string{rec.URI, rec.Message} {
		if text == "" {
			continue
		}
		if match := m.re.FindStringSubmatch(text); match != nil {
			return match[1], true
		}
	}
	return "", false
}
