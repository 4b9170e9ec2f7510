package types

import "fmt"

// TrainerReport accumulates the counters of one or more training runs
type TrainerReport struct {
	TimesReachedGoal       int `json:"times_reached_goal"`
	TotalActionsRun        int `json:"total_actions_run"`
	StabilizationWaitCount int `json:"stabilization_wait_count"`
	Epochs                 int `json:"epochs"`
}

// Add sums two reports. Associative and commutative, so reports of
// sequential runs add up to the report of the combined run.
func (r TrainerReport) Add(other TrainerReport) TrainerReport {
	return TrainerReport{
		TimesReachedGoal:       r.TimesReachedGoal + other.TimesReachedGoal,
		TotalActionsRun:        r.TotalActionsRun + other.TotalActionsRun,
		StabilizationWaitCount: r.StabilizationWaitCount + other.StabilizationWaitCount,
		Epochs:                 r.Epochs + other.Epochs,
	}
}

func (r TrainerReport) String() string {
	return fmt.Sprintf("epochs=%d goals=%d actions=%d waits=%d",
		r.Epochs, r.TimesReachedGoal, r.TotalActionsRun, r.StabilizationWaitCount)
}
