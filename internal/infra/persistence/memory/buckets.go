package memory

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Bucket names used by the snapshotting SQL backends. Each bucket holds one
// JSON document keyed by entity identity.
const (
	BucketPeople        = "people"
	BucketProjects      = "projects"
	BucketApplications  = "applications"
	BucketRegistrations = "registrations"
	BucketMeta          = "meta"
)

// Buckets lists every persisted bucket in write order.
var Buckets = []string{BucketPeople, BucketProjects, BucketApplications, BucketRegistrations, BucketMeta}

type meta struct {
	Sequences map[string]int `json:"sequences"`
}

// EncodeBucket marshals one bucket of the snapshot.
func EncodeBucket(snapshot Snapshot, bucket string) ([]byte, error) {
	switch bucket {
	case BucketPeople:
		return json.Marshal(snapshot.People)
	case BucketProjects:
		return json.Marshal(snapshot.Projects)
	case BucketApplications:
		return json.Marshal(snapshot.Applications)
	case BucketRegistrations:
		return json.Marshal(snapshot.Registrations)
	case BucketMeta:
		m := meta{Sequences: make(map[string]int, len(snapshot.Sequences))}
		for k, v := range snapshot.Sequences {
			m.Sequences[string(k)] = v
		}
		return json.Marshal(m)
	}
	return nil, fmt.Errorf("unknown bucket %q", bucket)
}

// DecodeBucket unmarshals a bucket payload into the snapshot. Unknown buckets are ignored.
func DecodeBucket(snapshot *Snapshot, bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	var err error
	switch bucket {
	case BucketPeople:
		err = json.Unmarshal(payload, &snapshot.People)
	case BucketProjects:
		err = json.Unmarshal(payload, &snapshot.Projects)
	case BucketApplications:
		err = json.Unmarshal(payload, &snapshot.Applications)
	case BucketRegistrations:
		err = json.Unmarshal(payload, &snapshot.Registrations)
	case BucketMeta:
		var m meta
		if err = json.Unmarshal(payload, &m); err == nil {
			if snapshot.Sequences == nil {
				snapshot.Sequences = make(map[EntityType]int, len(m.Sequences))
			}
			for k, v := range m.Sequences {
				snapshot.Sequences[EntityType(k)] = v
			}
		}
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}

// BucketPayload is one encoded bucket ready to upsert.
type BucketPayload struct {
	Bucket string
	Data   []byte
}

// BucketWriter remembers the last committed payload of each bucket so SQL
// backends rewrite only the buckets a transaction changed. Not safe for
// concurrent use; callers serialise persists.
type BucketWriter struct {
	last map[string][]byte
}

// Pending encodes snapshot and returns the buckets that differ from the last
// commit, in Buckets order.
func (w *BucketWriter) Pending(snapshot Snapshot) ([]BucketPayload, error) {
	var out []BucketPayload
	for _, bucket := range Buckets {
		data, err := EncodeBucket(snapshot, bucket)
		if err != nil {
			return nil, err
		}
		if prev, ok := w.last[bucket]; ok && bytes.Equal(prev, data) {
			continue
		}
		out = append(out, BucketPayload{Bucket: bucket, Data: data})
	}
	return out, nil
}

// Committed records payloads as durable.
func (w *BucketWriter) Committed(payloads []BucketPayload) {
	if w.last == nil {
		w.last = make(map[string][]byte, len(Buckets))
	}
	for _, p := range payloads {
		w.last[p.Bucket] = p.Data
	}
}
