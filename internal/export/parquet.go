package export

import (
	"time"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// lapParquetRow stores missing integer metrics as -1 and missing floats as NaN.
type lapParquetRow struct {
	SessionID      string  `parquet:"name=session_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SessionDate    string  `parquet:"name=session_date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	SetIndex       int32   `parquet:"name=set_index, type=INT32"`
	LapIndex       int32   `parquet:"name=lap_index, type=INT32"`
	StartUTC       string  `parquet:"name=start_utc, type=BYTE_ARRAY, convertedtype=UTF8"`
	EndUTC         string  `parquet:"name=end_utc, type=BYTE_ARRAY, convertedtype=UTF8"`
	DistanceM      float64 `parquet:"name=distance_m, type=DOUBLE"`
	DurationS      float64 `parquet:"name=duration_s, type=DOUBLE"`
	StrokeCount    int64   `parquet:"name=stroke_count, type=INT64"`
	Swolf          int64   `parquet:"name=swolf, type=INT64"`
	PaceMinPer100m float64 `parquet:"name=pace_min_per_100m, type=DOUBLE"`
	StrokeType     string  `parquet:"name=stroke_type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	AvgHRBPM       int64   `parquet:"name=avg_hr_bpm, type=INT64"`
}

// MarshalParquet encodes rows as a snappy-compressed Parquet file.
func MarshalParquet(rows []LapRow) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(lapParquetRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		row := lapParquetRow{
			SessionID:      r.SessionID,
			SessionDate:    r.SessionDate.UTC().Format(time.DateOnly),
			SetIndex:       int32(r.SetIndex),
			LapIndex:       int32(r.LapIndex),
			StartUTC:       r.Start.UTC().Format(time.RFC3339),
			EndUTC:         r.End.UTC().Format(time.RFC3339),
			DistanceM:      r.DistanceMeters,
			DurationS:      r.DurationSeconds,
			StrokeCount:    intOrMinusOne(r.StrokeCount),
			Swolf:          intOrMinusOne(r.Swolf),
			PaceMinPer100m: floatOrNaN(r.PaceMinPer100m),
			StrokeType:     stringOrEmpty(r.StrokeType),
			AvgHRBPM:       intOrMinusOne(r.AvgHeartRateBPM),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
