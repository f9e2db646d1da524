package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"truck-tracking-service/internal/domain"
)

// AlertSummary counts waiting trucks by alert level.
type AlertSummary struct {
	TotalWaiting int `json:"total_waiting"`
	Critical     int `json:"critical"`
	Warning      int `json:"warning"`
	Attention    int `json:"attention"`
}

// DestinationAlerts counts alerted trucks bound for one destination.
type DestinationAlerts struct {
	Critical  int `json:"critical"`
	Warning   int `json:"warning"`
	Attention int `json:"attention"`
	Total     int `json:"total"`
}

// CriticalAlert is one critical truck with its computed priority.
type CriticalAlert struct {
	Record             domain.TrackingRecord `json:"record"`
	Priority           int                   `json:"priority"`
	EscalationRequired bool                  `json:"escalation_required"`
}

// Recommendation is a rule-derived operational suggestion.
type Recommendation struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action"`
	Priority    string `json:"priority"`
}

// AlertDashboard is the full aggregation over one cycle's records.
type AlertDashboard struct {
	Summary          AlertSummary                 `json:"summary"`
	ByDestination    map[string]DestinationAlerts `json:"by_destination"`
	CriticalAlerts   []CriticalAlert              `json:"critical_alerts"`
	Recommendations  []Recommendation             `json:"recommendations"`
	AverageWaitHours float64                      `json:"average_wait_hours"`
	GeneratedAt      time.Time                    `json:"generated_at"`
}

// Summarize counts the batch by alert level.
func Summarize(records []domain.TrackingRecord) AlertSummary {
	var s AlertSummary
	for _, r := range records {
		switch r.AlertLevel {
		case domain.AlertCritical:
			s.Critical++
		case domain.AlertWarning:
			s.Warning++
		case domain.AlertAttention:
			s.Attention++
		default:
			continue
		}
		s.TotalWaiting++
	}
	return s
}

// AlertsByDestination groups alerted trucks by destination.
func AlertsByDestination(records []domain.TrackingRecord) map[string]DestinationAlerts {
	out := make(map[string]DestinationAlerts)
	for _, r := range records {
		if r.AlertLevel == domain.AlertNormal {
			continue
		}
		dest := r.DestinationID
		if dest == "" {
			dest = "UNKNOWN"
		}
		d := out[dest]
		switch r.AlertLevel {
		case domain.AlertCritical:
			d.Critical++
		case domain.AlertWarning:
			d.Warning++
		case domain.AlertAttention:
			d.Attention++
		}
		d.Total++
		out[dest] = d
	}
	return out
}

// AlertPriority scores a critical truck 0-100 from its wait time, active
// geofence, speed, and product tag.
func AlertPriority(r domain.TrackingRecord) int {
	priority := 0

	switch hours := r.WaitHours(); {
	case hours > 72:
		priority += 40
	case hours > 48:
		priority += 30
	case hours > 24:
		priority += 20
	default:
		priority += 10
	}

	switch {
	case r.Containment.In(domain.LevelDocks):
		priority += 30
	case r.Containment.In(domain.LevelTrackAndTrace):
		priority += 25
	case r.Containment.In(domain.LevelDistributionCenter):
		priority += 15
	}

	switch {
	case r.SpeedKmh == 0:
		priority += 20
	case r.SpeedKmh < 5:
		priority += 15
	}

	product := strings.ToUpper(r.Product)
	switch {
	case strings.Contains(product, "PREMIUM") || strings.Contains(product, "SPECIAL"):
		priority += 10
	case strings.Contains(product, "URGENT"):
		priority += 8
	}

	if priority > 100 {
		priority = 100
	}
	return priority
}

// CriticalAlerts returns the batch's critical trucks sorted by descending
// priority.
func CriticalAlerts(records []domain.TrackingRecord) []CriticalAlert {
	alerts := make([]CriticalAlert, 0, 4)
	for _, r := range records {
		if r.AlertLevel != domain.AlertCritical {
			continue
		}
		alerts = append(alerts, CriticalAlert{
			Record:             r,
			Priority:           AlertPriority(r),
			EscalationRequired: r.WaitHours() > 72,
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Priority > alerts[j].Priority
	})
	return alerts
}

// Recommendations derives operational suggestions from the batch.
func Recommendations(records []domain.TrackingRecord) []Recommendation {
	var critical, warning, atDocks int
	for _, r := range records {
		switch r.AlertLevel {
		case domain.AlertCritical:
			critical++
		case domain.AlertWarning:
			warning++
		}
		if r.Containment.In(domain.LevelDocks) {
			atDocks++
		}
	}

	recs := make([]Recommendation, 0, 3)
	if critical > 3 {
		recs = append(recs, Recommendation{
			Type:        "urgent",
			Title:       "Multiple critical alerts",
			Description: itoaCount(critical, "trucks waiting beyond the critical threshold"),
			Action:      "Activate the immediate escalation protocol",
			Priority:    "high",
		})
	}
	if warning > 5 {
		recs = append(recs, Recommendation{
			Type:        "attention",
			Title:       "Rising wait times",
			Description: itoaCount(warning, "trucks waiting beyond the warning threshold"),
			Action:      "Review unloading capacity at distribution centers",
			Priority:    "medium",
		})
	}
	if atDocks > 2 {
		recs = append(recs, Recommendation{
			Type:        "operational",
			Title:       "Dock congestion",
			Description: itoaCount(atDocks, "trucks queued at docks"),
			Action:      "Rebalance dock allocation",
			Priority:    "medium",
		})
	}
	return recs
}

// BuildAlertDashboard assembles the full aggregation for one batch.
func BuildAlertDashboard(records []domain.TrackingRecord, now time.Time) AlertDashboard {
	return AlertDashboard{
		Summary:          Summarize(records),
		ByDestination:    AlertsByDestination(records),
		CriticalAlerts:   CriticalAlerts(records),
		Recommendations:  Recommendations(records),
		AverageWaitHours: averageWaitHours(records),
		GeneratedAt:      now,
	}
}

func itoaCount(n int, what string) string {
	return fmt.Sprintf("%d %s", n, what)
}

func averageWaitHours(records []domain.TrackingRecord) float64 {
	var total float64
	var waiting int
	for _, r := range records {
		if r.WaitMinutes > 0 {
			total += r.WaitHours()
			waiting++
		}
	}
	if waiting == 0 {
		return 0
	}
	return total / float64(waiting)
}
