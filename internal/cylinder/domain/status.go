package domain

import "strings"

type Status string

const (
	StatusAvailable    Status = "Available"
	StatusRented       Status = "Rented"
	StatusMaintenance  Status = "Maintenance"
	StatusOutOfService Status = "Out of Service"
)

// statusSynonyms folds the free-text vocabularies seen in external sources
// into the canonical four states. Order matters: the first substring hit wins.
var statusSynonyms = []struct {
	needle string
	status Status
}{
	{"available", StatusAvailable},
	{"in stock", StatusAvailable},
	{"instock", StatusAvailable},
	{"free", StatusAvailable},
	{"rented", StatusRented},
	{"on rent", StatusRented},
	{"issued", StatusRented},
	{"dispatched", StatusRented},
	{"out", StatusRented},
	{"maintenance", StatusMaintenance},
	{"repair", StatusMaintenance},
	{"service due", StatusMaintenance},
	{"testing", StatusMaintenance},
	{"out of service", StatusOutOfService},
	{"retired", StatusOutOfService},
	{"scrap", StatusOutOfService},
	{"condemned", StatusOutOfService},
}

// FoldStatus maps a raw source value onto the canonical vocabulary. Values
// that match no synonym pass through unchanged; unknown vocabulary is a data
// observation, not an import failure.
func FoldStatus(raw string) Status {
	value := strings.TrimSpace(raw)
	if value == "" {
		return StatusAvailable
	}

	lower := strings.ToLower(value)
	switch Status(value) {
	case StatusAvailable, StatusRented, StatusMaintenance, StatusOutOfService:
		return Status(value)
	}
	// "out of service" must win over the bare "out" synonym.
	if strings.Contains(lower, "out of service") {
		return StatusOutOfService
	}
	for _, s := range statusSynonyms {
		if strings.Contains(lower, s.needle) {
			return s.status
		}
	}
	return Status(value)
}
