package models

// BulkResult is the outcome of one row in a batch operation.
type BulkResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Error   string `json:"error,omitempty"`
}

// BulkSummary counts outcomes across a batch.
type BulkSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// SummarizeResults tallies successes and failures.
func SummarizeResults(results []BulkResult) BulkSummary {
	summary := BulkSummary{Total: len(results)}
	for _, r := range results {
		if r.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}
	return summary
}
