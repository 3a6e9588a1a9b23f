package swim

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DocumentVersion is written into every encoded WorkoutDetail.
//
// Version 1 documents carry no version field, only sets with laps and rest;
// all aggregates are recomputed when they are read.
const DocumentVersion = 2

// ErrUnsupportedVersion is returned for documents written by a newer release.
var ErrUnsupportedVersion = errors.New("unsupported workout detail version")

type encodedDetail struct {
	Version int `json:"version"`
	*WorkoutDetail
}

type decodedDetail struct {
	Version int   `json:"version"`
	Sets    []Set `json:"sets"`
	Metrics
	LongestContinuousDistance *float64 `json:"longest_continuous_distance_m"`
}

// EncodeDetail serializes a workout detail as a versioned JSON document.
func EncodeDetail(d *WorkoutDetail) ([]byte, error) {
	if d == nil {
		return nil, errors.New("encoding workout detail: nil detail")
	}
	data, err := json.Marshal(encodedDetail{Version: DocumentVersion, WorkoutDetail: d})
	if err != nil {
		return nil, fmt.Errorf("encoding workout detail: %w", err)
	}
	return data, nil
}

// DecodeDetail parses a document produced by EncodeDetail or by an older
// release. Fields missing from older documents are recomputed from the laps.
func DecodeDetail(data []byte) (*WorkoutDetail, error) {
	var doc decodedDetail
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding workout detail: %w", err)
	}

	switch {
	case doc.Version > DocumentVersion:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	case doc.Version <= 1:
		return Aggregate(doc.Sets), nil
	}

	detail := &WorkoutDetail{Sets: doc.Sets, Metrics: doc.Metrics}
	if doc.LongestContinuousDistance != nil {
		detail.LongestContinuousDistance = *doc.LongestContinuousDistance
	} else {
		detail.LongestContinuousDistance = LongestContinuousDistance(detail.Sets, detail.TotalDistance)
	}
	return detail, nil
}
