package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// FlexTime decodes the timestamp shapes found in legacy data: RFC 3339
// strings, epoch milliseconds, and Firestore {seconds, nanoseconds} objects.
// It encodes as a plain time.
type FlexTime struct {
	time.Time
}

// Ptr returns nil for the zero time.
func (t FlexTime) Ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// Or returns t, or fallback when t is zero.
func (t FlexTime) Or(fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t.Time
}

type firestoreTimestamp struct {
	Seconds      *int64 `json:"seconds"`
	Nanoseconds  int64  `json:"nanoseconds"`
	USeconds     *int64 `json:"_seconds"`
	UNanoseconds int64  `json:"_nanoseconds"`
}

func (f firestoreTimestamp) time() (time.Time, bool) {
	switch {
	case f.Seconds != nil:
		return time.Unix(*f.Seconds, f.Nanoseconds).UTC(), true
	case f.USeconds != nil:
		return time.Unix(*f.USeconds, f.UNanoseconds).UTC(), true
	}
	return time.Time{}, false
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

func (t *FlexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseTimeString(s)
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	case '{':
		var ts firestoreTimestamp
		if err := json.Unmarshal(data, &ts); err != nil {
			return err
		}
		v, ok := ts.time()
		if !ok {
			return fmt.Errorf("models.FlexTime: object without seconds")
		}
		t.Time = v
		return nil
	default:
		ms, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("models.FlexTime: %w", err)
		}
		t.Time = time.UnixMilli(int64(ms)).UTC()
		return nil
	}
}

func (t FlexTime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if t.IsZero() {
		return bson.TypeNull, nil, nil
	}
	return bson.MarshalValue(t.Time)
}

func (t *FlexTime) UnmarshalBSONValue(typ bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: typ, Value: data}
	switch typ {
	case bson.TypeNull, bson.TypeUndefined:
		t.Time = time.Time{}
		return nil
	case bson.TypeDateTime:
		t.Time = rv.Time().UTC()
		return nil
	case bson.TypeString:
		parsed, err := ParseTimeString(rv.StringValue())
		if err != nil {
			return err
		}
		t.Time = parsed
		return nil
	case bson.TypeInt32, bson.TypeInt64, bson.TypeDouble:
		ms, _ := rv.AsInt64OK()
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	case bson.TypeEmbeddedDocument:
		doc := rv.Document()
		for _, key := range []string{"seconds", "_seconds"} {
			v, err := doc.LookupErr(key)
			if err != nil {
				continue
			}
			secs, ok := v.AsInt64OK()
			if !ok {
				continue
			}
			var nanos int64
			for _, nk := range []string{"nanoseconds", "_nanoseconds"} {
				if nv, err := doc.LookupErr(nk); err == nil {
					nanos, _ = nv.AsInt64OK()
				}
			}
			t.Time = time.Unix(secs, nanos).UTC()
			return nil
		}
		return fmt.Errorf("models.FlexTime: document without seconds")
	}
	return fmt.Errorf("models.FlexTime: unsupported bson type %s", typ)
}

// ParseTimeString accepts RFC 3339 (with or without fractional seconds) and
// the zone-less "2006-01-02T15:04:05" form, interpreted in time.Local.
func ParseTimeString(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return v, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02"} {
		if v, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return v, nil
		}
	}
	return time.Time{}, fmt.Errorf("models.FlexTime: unrecognized time %q", raw)
}
