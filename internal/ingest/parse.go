package ingest

import (
	"github.com/soltixdb/climatix/internal/analytics"
	"github.com/soltixdb/climatix/internal/utils"
)

// FromObject converts a decoded {"timestamp","temp","hum","lux"} object.
// temp, hum and lux are required; a missing timestamp becomes now.
func FromObject(obj map[string]interface{}, now int64) (analytics.Reading, bool) {
	temp, ok1 := utils.ToFloat64(obj["temp"])
	hum, ok2 := utils.ToFloat64(obj["hum"])
	lux, ok3 := utils.ToFloat64(obj["lux"])
	if !ok1 || !ok2 || !ok3 {
		return analytics.Reading{}, false
	}

	ts := now
	if raw, present := obj["timestamp"]; present && raw != nil {
		v, ok := utils.ToInt64(raw)
		if !ok {
			return analytics.Reading{}, false
		}
		ts = v
	}

	return analytics.Reading{Timestamp: ts, Temp: temp, Hum: hum, Lux: lux}, true
}

// FromArray converts a compact [timestamp, temp, hum, lux] row. Extra
// trailing elements are ignored.
func FromArray(row []interface{}) (analytics.Reading, bool) {
	if len(row) < 4 {
		return analytics.Reading{}, false
	}

	ts, ok := utils.ToInt64(row[0])
	if !ok {
		return analytics.Reading{}, false
	}
	var vals [3]float64
	for i := range vals {
		v, ok := utils.ToFloat64(row[i+1])
		if !ok {
			return analytics.Reading{}, false
		}
		vals[i] = v
	}

	return analytics.Reading{Timestamp: ts, Temp: vals[0], Hum: vals[1], Lux: vals[2]}, true
}
