package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cooperation stages used by the UI and the stats endpoint. Status is free
// text in the store, these are just the well known values.
const (
	StatusNotContacted = "not contacted"
	StatusNegotiating  = "negotiating"
	StatusContracted   = "contracted"
	StatusCooperating  = "cooperating"
)

// StatsCacheKey holds the cached Stats payload.
const StatsCacheKey = "doctors:stats"

// Doctor is one tracked lead. Optional columns are nil when absent.
type Doctor struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Email           *string   `json:"email"`
	Specialty       *string   `json:"specialty"`
	Gender          *string   `json:"gender"`
	Status          string    `json:"status"`
	ContactPerson   *string   `json:"contact_person"`
	HasSocialMedia  *string   `json:"has_social_media"`
	SocialMediaLink *string   `json:"social_media_link"`
	CurrentBrand    *string   `json:"current_brand"`
	PriceRange      *string   `json:"price_range"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ApplyDefaults trims the name and fills in the default status.
func (d *Doctor) ApplyDefaults() {
	d.Name = strings.TrimSpace(d.Name)
	d.Status = strings.TrimSpace(d.Status)
	if d.Status == "" {
		d.Status = StatusNotContacted
	}
}

// Stats is the dashboard summary.
type Stats struct {
	Total       int            `json:"total"`
	Contracted  int            `json:"contracted"`
	Cooperating int            `json:"cooperating"`
	Negotiating int            `json:"negotiating"`
	ByStatus    map[string]int `json:"by_status"`
}

// NewStats derives the headline counters from per-status counts.
func NewStats(byStatus map[string]int) *Stats {
	s := &Stats{ByStatus: byStatus}
	if s.ByStatus == nil {
		s.ByStatus = map[string]int{}
	}
	for _, n := range s.ByStatus {
		s.Total += n
	}
	s.Contracted = s.ByStatus[StatusContracted]
	s.Cooperating = s.ByStatus[StatusCooperating]
	s.Negotiating = s.ByStatus[StatusNegotiating]
	return s
}

// StringPtr returns nil for blank input so optional columns stay absent.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Deref renders an optional value, absent becomes "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
