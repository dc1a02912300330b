// Package domain holds DTOs and ports for the urls http and service contracts
package domain

import (
	"time"

	detectdom "phishguard/internal/services/detect/domain"
)

// OneInput checks a single URL
type OneInput struct {
	URL    string `json:"url" validate:"notblank,max=4096" example:"paypa1-login.example/verify"`
	APIKey string `json:"api_key" validate:"notblank,max=256" example:"3f1c..."`
}

// ListInput checks a batch of URLs; verdicts come back in input order
type ListInput struct {
	URLs   []string `json:"urls" validate:"required,min=1,dive,notblank,max=4096"`
	APIKey string   `json:"api_key" validate:"notblank,max=256"`
}

// HistoryInput selects an app's checks; either bound may be omitted
type HistoryInput struct {
	Token   string `json:"token" validate:"notblank,max=256"`
	StartDT string `json:"start_dt,omitempty" example:"2026-01-02T00:00:00Z"`
	EndDT   string `json:"end_dt,omitempty" example:"2026-01-03T00:00:00Z"`
}

// History is the per app usage report
type History struct {
	AppName           string              `json:"app_name"`
	AllURLs           int                 `json:"all_urls"`
	PhishingURLs      int                 `json:"phishing_urls"`
	DayLimit          int64               `json:"day_limit"`
	DayLimitRemaining int64               `json:"day_limit_remaining"`
	HistoryURLs       []string            `json:"history_urls"`
	HistoryResults    []detectdom.Verdict `json:"history_results"`
	HistoryTS         []time.Time         `json:"history_ts"`
}
