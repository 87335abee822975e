package models

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Storage   string `json:"storage,omitempty"`
	Registry  string `json:"registry,omitempty"`
	Queue     string `json:"queue,omitempty"`
}

// IngestResponse is returned by the sensor ingest endpoints
type IngestResponse struct {
	Status   string `json:"status"`
	Received int    `json:"received"`
	Skipped  int    `json:"skipped,omitempty"`
	BatchID  string `json:"batch_id,omitempty"`
}

// DeviceListResponse represents list devices response
type DeviceListResponse struct {
	Devices interface{} `json:"devices"`
	Count   int         `json:"count"`
}

// ReadingsResponse represents the raw data of a device
type ReadingsResponse struct {
	DeviceID string      `json:"device_id"`
	Count    int         `json:"count"`
	Data     interface{} `json:"data"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
