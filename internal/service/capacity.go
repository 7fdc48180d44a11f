package service

import (
	"fmt"
	"math"

	"github.com/SMTech-UK/workload-wizard-sub001/internal/models"
	appErrors "github.com/SMTech-UK/workload-wizard-sub001/pkg/errors"
)

// Capacity band thresholds, as percentages of capacity. Each band includes its lower bound.
const (
	OverloadedAbove  = 100.0
	AtCapacityFrom   = 95.0
	NearCapacityFrom = 80.0
)

// Utilization returns allocated as a percentage of contractTotal, or 0 when there is no contract.
func Utilization(allocated, contractTotal float64) float64 {
	if contractTotal <= 0 {
		return 0
	}
	return allocated / contractTotal * 100
}

// ClassifyCapacity buckets allocated hours against a capacity.
func ClassifyCapacity(allocated, capacity float64) models.CapacityStatus {
	if capacity == 0 {
		return models.CapacityAvailable
	}
	pct := allocated / capacity * 100
	switch {
	case pct > OverloadedAbove:
		return models.CapacityOverloaded
	case pct >= AtCapacityFrom:
		return models.CapacityAtCapacity
	case pct >= NearCapacityFrom:
		return models.CapacityNearCapacity
	default:
		return models.CapacityAvailable
	}
}

// EntryDelta is the display-only change of one admin entry.
type EntryDelta struct {
	Index       int     `json:"index"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Original    float64 `json:"original"`
	Edited      float64 `json:"edited"`
	Delta       float64 `json:"delta"`
}

// AllocationCheck is the admissibility verdict for an admin allocation edit.
type AllocationCheck struct {
	Capacity      float64      `json:"capacity"`
	OriginalTotal float64      `json:"original_total"`
	EditedTotal   float64      `json:"edited_total"`
	Delta         float64      `json:"delta"`
	Remaining     float64      `json:"remaining"`
	Admissible    bool         `json:"admissible"`
	Entries       []EntryDelta `json:"entries"`
}

// entryHours reads an entry treating missing or non-numeric hours as zero.
func entryHours(entry models.AdminAllocation) float64 {
	if entry.Hours == nil || math.IsNaN(*entry.Hours) || math.IsInf(*entry.Hours, 0) {
		return 0
	}
	return *entry.Hours
}

// SumHours totals the hours of non-header entries.
func SumHours(entries []models.AdminAllocation) float64 {
	var total float64
	for _, entry := range entries {
		if entry.IsHeader {
			continue
		}
		total += entryHours(entry)
	}
	return total
}

// CheckAllocationEdit compares an edit against the original list and the available capacity.
func CheckAllocationEdit(original, edited []models.AdminAllocation, capacity float64) AllocationCheck {
	originalTotal := SumHours(original)
	editedTotal := SumHours(edited)
	delta := editedTotal - originalTotal
	remaining := capacity - delta

	entries := make([]EntryDelta, 0, len(edited))
	for i, entry := range edited {
		if entry.IsHeader {
			continue
		}
		var before float64
		if i < len(original) && !original[i].IsHeader {
			before = entryHours(original[i])
		}
		after := entryHours(entry)
		entries = append(entries, EntryDelta{
			Index:       i,
			Category:    entry.Category,
			Description: entry.Description,
			Original:    before,
			Edited:      after,
			Delta:       after - before,
		})
	}

	return AllocationCheck{
		Capacity:      capacity,
		OriginalTotal: originalTotal,
		EditedTotal:   editedTotal,
		Delta:         delta,
		Remaining:     remaining,
		Admissible:    remaining >= 0,
		Entries:       entries,
	}
}

// ValidateAllocationEntries requires every non-header entry to carry finite, non-negative hours.
func ValidateAllocationEntries(entries []models.AdminAllocation) error {
	for i, entry := range entries {
		if entry.IsHeader {
			continue
		}
		switch {
		case entry.Hours == nil:
			return appErrors.Clone(appErrors.ErrValidation, entryMessage(i, "Hours allocated are required"))
		case math.IsNaN(*entry.Hours) || math.IsInf(*entry.Hours, 0):
			return appErrors.Clone(appErrors.ErrValidation, entryMessage(i, "Hours allocated must be a number"))
		case *entry.Hours < 0:
			return appErrors.Clone(appErrors.ErrValidation, entryMessage(i, "Hours allocated cannot be negative"))
		}
	}
	return nil
}

func entryMessage(index int, message string) string {
	return fmt.Sprintf("%s (entry %d)", message, index+1)
}
