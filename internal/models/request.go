package models

import (
	"errors"
	"fmt"
)

// SensorBatchRequest represents a batch of object-shaped readings
type SensorBatchRequest struct {
	DeviceID string                   `json:"device_id"`
	Data     []map[string]interface{} `json:"data"`
}

// Validate checks the envelope; individual records are validated on ingest
func (r *SensorBatchRequest) Validate() error {
	if r.DeviceID == "" {
		return errors.New("device_id is required")
	}
	if len(r.Data) == 0 {
		return errors.New("data must be a non-empty array")
	}
	return nil
}

// SensorArrayRequest is the compact form: each row is [timestamp, temp, hum, lux]
type SensorArrayRequest struct {
	DeviceID string          `json:"device_id"`
	Count    int             `json:"count,omitempty"`
	Data     [][]interface{} `json:"data"`
}

// Validate checks the envelope. Count is advisory but must match when sent.
func (r *SensorArrayRequest) Validate() error {
	if r.DeviceID == "" {
		return errors.New("device_id is required")
	}
	if len(r.Data) == 0 {
		return errors.New("data must be a non-empty array")
	}
	if r.Count > 0 && r.Count != len(r.Data) {
		return fmt.Errorf("count %d does not match %d rows", r.Count, len(r.Data))
	}
	return nil
}

// SplitSensorRecord separates device_id from a flat single-reading body
func SplitSensorRecord(body map[string]interface{}) (string, map[string]interface{}, error) {
	id, _ := body["device_id"].(string)
	if id == "" {
		return "", nil, errors.New("device_id is required")
	}
	record := make(map[string]interface{}, len(body)-1)
	for k, v := range body {
		if k != "device_id" {
			record[k] = v
		}
	}
	return id, record, nil
}

// CompareRequest names the two periods of a comparison
type CompareRequest struct {
	Period1 string `json:"period1"`
	Period2 string `json:"period2"`
}
