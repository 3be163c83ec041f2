package domain

type Statistics struct {
	TotalCompletions int            `json:"total_completions"`
	BestPeriod       int            `json:"best_period"`
	PerfectDays      int            `json:"perfect_days"`
	AveragePerDay    float64        `json:"average_per_day"`
	Trackers         []TrackerStats `json:"trackers"`
}

type TrackerStats struct {
	TrackerID     string `json:"tracker_id"`
	Label         string `json:"label"`
	Emoji         string `json:"emoji"`
	Color         string `json:"color"`
	Completions   int    `json:"completions"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}
