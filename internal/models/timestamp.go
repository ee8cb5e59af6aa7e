package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// isoLayout is the ISO-8601 form every timestamp is rendered in.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp wraps time.Time so documents imported from the previous hosted
// store decode regardless of how their dates were written: BSON dates,
// RFC 3339 strings, epoch milliseconds, or {_seconds,_nanoseconds} maps.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates to millisecond precision, which is what a BSON date
// can hold, so values compare equal after a round trip.
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// UnmarshalBSONValue accepts every legacy representation instead of failing
// the whole document.
func (ts *Timestamp) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		ts.Time = time.Time{}
		return nil
	case bsontype.DateTime:
		var value time.Time
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*ts = NewTimestamp(value)
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		parsed, err := parseISO(value)
		if err != nil {
			return err
		}
		*ts = parsed
		return nil
	case bsontype.Int32, bsontype.Int64:
		var millis int64
		if err := bson.UnmarshalValue(t, data, &millis); err != nil {
			return err
		}
		*ts = NewTimestamp(time.UnixMilli(millis))
		return nil
	case bsontype.Double:
		var millis float64
		if err := bson.UnmarshalValue(t, data, &millis); err != nil {
			return err
		}
		*ts = NewTimestamp(time.UnixMilli(int64(math.Round(millis))))
		return nil
	case bsontype.Timestamp:
		var value primitive.Timestamp
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*ts = NewTimestamp(time.Unix(int64(value.T), 0))
		return nil
	case bsontype.EmbeddedDocument:
		var doc struct {
			Seconds        *int64 `bson:"_seconds"`
			Nanoseconds    int64  `bson:"_nanoseconds"`
			AltSeconds     *int64 `bson:"seconds"`
			AltNanoseconds int64  `bson:"nanoseconds"`
		}
		if err := bson.Unmarshal(data, &doc); err != nil {
			return err
		}
		switch {
		case doc.Seconds != nil:
			*ts = NewTimestamp(time.Unix(*doc.Seconds, doc.Nanoseconds))
		case doc.AltSeconds != nil:
			*ts = NewTimestamp(time.Unix(*doc.AltSeconds, doc.AltNanoseconds))
		default:
			return fmt.Errorf("cannot decode document without seconds into Timestamp")
		}
		return nil
	default:
		return fmt.Errorf("cannot decode %s into Timestamp", t)
	}
}

// MarshalBSONValue always writes a BSON date so new writes stay consistent.
func (ts Timestamp) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if ts.IsZero() {
		return bsontype.Null, nil, nil
	}
	return bson.MarshalValue(ts.Time.UTC())
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.UTC().Format(isoLayout))
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == `""` {
		ts.Time = time.Time{}
		return nil
	}
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("timestamp must be an ISO-8601 string: %w", err)
	}
	parsed, err := parseISO(value)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// ISO renders the timestamp the way the API does; zero values render empty.
func (ts Timestamp) ISO() string {
	if ts.IsZero() {
		return ""
	}
	return ts.Time.UTC().Format(isoLayout)
}

func parseISO(value string) (Timestamp, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Timestamp{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return NewTimestamp(parsed), nil
		}
	}
	return Timestamp{}, fmt.Errorf("cannot parse %q as timestamp", value)
}
