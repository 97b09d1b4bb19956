package videoingest

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// DecodeTelemetry parses the raw telemetry payload of a finalize request.
// An absent or JSON-null payload yields a nil slice. A payload that is
// present but not an array fails with ErrMalformedTelemetry. Array elements
// that do not decode into a GPS sample are silently skipped, same as the
// semantically bad samples ReconcileTelemetry drops; one broken element
// never rejects the batch around it.
func DecodeTelemetry(data json.RawMessage) ([]RawGPSPoint, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, ErrMalformedTelemetry
	}

	points := make([]RawGPSPoint, 0, len(elements))
	for _, element := range elements {
		var point RawGPSPoint
		if err := json.Unmarshal(element, &point); err != nil {
			continue
		}
		points = append(points, point)
	}
	return points, nil
}

// ReconcileTelemetry normalizes raw GPS samples into absolute-timestamped
// telemetry points for one asset. It is a pure, order-preserving transform:
//
//  1. a sample without latitude or longitude is dropped,
//  2. an explicit RFC 3339 timestamp wins and the relative offset stays unset,
//  3. otherwise the timestamp is startUTC + RelOffsetSec,
//  4. a sample with no temporal anchor at all is dropped.
//
// Malformed samples never fail the batch; they are silently skipped.
func ReconcileTelemetry(assetID uuid.UUID, startUTC time.Time, raw []RawGPSPoint) []TelemetryPoint {
	points := make([]TelemetryPoint, 0, len(raw))

	for _, sample := range raw {
		if sample.Lat == nil || sample.Lon == nil {
			continue
		}

		var ts time.Time
		var relOffset *int

		switch {
		case sample.Timestamp != "":
			parsed, err := time.Parse(time.RFC3339, sample.Timestamp)
			if err != nil {
				continue
			}
			ts = parsed.UTC()
		case sample.RelOffsetSec != nil:
			offset := *sample.RelOffsetSec
			if offset < 0 {
				continue
			}
			ts = startUTC.Add(time.Duration(offset) * time.Second).UTC()
			relOffset = &offset
		default:
			// no temporal anchor
			continue
		}

		points = append(points, TelemetryPoint{
			AssetID:      assetID,
			Timestamp:    ts,
			Latitude:     *sample.Lat,
			Longitude:    *sample.Lon,
			RelOffsetSec: relOffset,
		})
	}

	return points
}
