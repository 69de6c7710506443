package models

// LookupResponse is the envelope returned by the lookup endpoints.
//
// On success, Status selects the shape of Data:
//
//	registered      → Record
//	not_registered  → TerminalData
//	underage        → TerminalData
//	out_of_district → OutOfDistrictData
//
// On failure, Error carries a coded message and RetriesExhausted reports
// whether every retry attempt was spent.
type LookupResponse struct {
	Success          bool         `json:"success"`
	NationalID       string       `json:"national_id,omitempty"`
	Status           Status       `json:"status,omitempty"`
	Data             any          `json:"data,omitempty"`
	Error            *ErrorDetail `json:"error,omitempty"`
	RetriesExhausted bool         `json:"retries_exhausted,omitempty"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching disabled).
	CacheStatus string `json:"cache_status,omitempty"`
}

// TerminalData is the payload for the underage and not_registered statuses.
// Message is the registry's verbatim Arabic text.
type TerminalData struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// OutOfDistrictData is the partially redacted payload for voters registered
// outside the configured districts: the jurisdiction, centre and address are
// retained, committee numbers are withheld.
type OutOfDistrictData struct {
	Message         string `json:"message"`
	Reason          string `json:"reason"`
	District        string `json:"district"`
	ElectoralCenter string `json:"electoral_center,omitempty"`
	Address         string `json:"address,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy", "degraded" or "unavailable"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}
