package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type timestampHolder struct {
	At Timestamp `bson:"at"`
}

func decodeHolder(t *testing.T, value interface{}) Timestamp {
	t.Helper()
	raw, err := bson.Marshal(bson.M{"at": value})
	require.NoError(t, err)

	var holder timestampHolder
	require.NoError(t, bson.Unmarshal(raw, &holder))
	return holder.At
}

func TestTimestampDecodesLegacyRepresentations(t *testing.T) {
	want := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)

	cases := map[string]interface{}{
		"bson date":       want,
		"iso string":      "2024-03-05T10:30:00Z",
		"offset string":   "2024-03-05T16:00:00+05:30",
		"epoch millis":    want.UnixMilli(),
		"epoch as double": float64(want.UnixMilli()),
		"exported map":    bson.M{"_seconds": want.Unix(), "_nanoseconds": 0},
		"seconds map":     bson.M{"seconds": want.Unix(), "nanoseconds": 0},
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			got := decodeHolder(t, value)
			assert.True(t, got.Equal(want), "got %s", got.Time)
		})
	}
}

func TestTimestampNullDecodesToZero(t *testing.T) {
	got := decodeHolder(t, nil)
	assert.True(t, got.IsZero())
}

func TestTimestampRejectsGarbage(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"at": "not a date"})
	require.NoError(t, err)

	var holder timestampHolder
	assert.Error(t, bson.Unmarshal(raw, &holder))
}

func TestTimestampJSONIsISO8601(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 3, 5, 10, 30, 0, 123456789, time.UTC))
	body, err := json.Marshal(struct {
		At   Timestamp `json:"at"`
		Zero Timestamp `json:"zero"`
	}{At: ts})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2024-03-05T10:30:00.123Z","zero":null}`, string(body))
}

func TestTimestampBSONRoundTripKeepsMillis(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 3, 5, 10, 30, 0, 987654321, time.UTC))
	raw, err := bson.Marshal(timestampHolder{At: ts})
	require.NoError(t, err)

	var holder timestampHolder
	require.NoError(t, bson.Unmarshal(raw, &holder))
	assert.True(t, holder.At.Equal(ts.Time))
}
