package kpi

import (
	"math"
	"time"

	"github.com/workdeskhq/workdesk/internal/approval"
	"github.com/workdeskhq/workdesk/internal/task"
	"github.com/workdeskhq/workdesk/internal/workreport"
)

// Weights of the three score components.
const (
	outputWeight     = 0.5
	qualityWeight    = 0.3
	disciplineWeight = 0.2
)

// Breakdown carries the component scores and the raw counts they were
// derived from.
type Breakdown struct {
	Output     int `json:"output"`
	Quality    int `json:"quality"`
	Discipline int `json:"discipline"`

	TotalTasks       int `json:"total_tasks"`
	DoneTasks        int `json:"done_tasks"`
	OverdueTasks     int `json:"overdue_tasks"`
	SubmittedReports int `json:"submitted_reports"`
	RatedReports     int `json:"rated_reports"`
	TotalRequests    int `json:"total_requests"`
	ApprovedRequests int `json:"approved_requests"`
	WorkingDays      int `json:"working_days"`
}

// Result is one member's score for a date range.
type Result struct {
	MemberID  string    `json:"member_id"`
	Name      string    `json:"name,omitempty"`
	Score     int       `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// Compute scores a member over [rangeStart, rangeEnd]. It is a pure
// function of its inputs; now is passed explicitly because overdue and
// working-day calculations are relative to evaluation time, not to the
// range end. Scores are integers in [0, 100].
func Compute(memberID string, tasks []*task.Task, reports []*workreport.WorkReport, requests []*approval.ApprovalRequest, rangeStart, rangeEnd, now time.Time) Result {
	b := Breakdown{}

	// Output: completion and on-time delivery of assigned tasks whose
	// deadline falls inside the range.
	var overdue, done, total int
	for _, t := range tasks {
		if t.AssigneeID != memberID {
			continue
		}
		if t.Deadline.Before(rangeStart) || t.Deadline.After(rangeEnd) {
			continue
		}
		total++
		if t.Status == task.StatusDone {
			done++
		}
		if t.IsOverdue(now) {
			overdue++
		}
	}
	completionRate := 0.0
	onTimeRate := 100.0
	if total > 0 {
		completionRate = float64(done) / float64(total) * 100
		onTimeRate = float64(total-overdue) / float64(total) * 100
	}
	output := math.Round(completionRate*0.6 + onTimeRate*0.4)

	// Quality: manager ratings on reports in range plus the approval
	// rate of review requests. Zero requests count as frictionless,
	// not as failure, and the rating component is skipped entirely
	// while no rated reports exist.
	startDay := rangeStart.Format("2006-01-02")
	endDay := rangeEnd.Format("2006-01-02")
	var submitted, rated, ratingSum int
	for _, r := range reports {
		if r.UserID != memberID || r.Date < startDay || r.Date > endDay {
			continue
		}
		submitted++
		if r.HasRating() {
			rated++
			ratingSum += *r.ManagerRating
		}
	}
	var totalRequests, approvedRequests int
	for _, a := range requests {
		if a.RequesterID != memberID {
			continue
		}
		if a.CreatedAt.Before(rangeStart) || a.CreatedAt.After(rangeEnd) {
			continue
		}
		totalRequests++
		if a.Status == approval.StatusApproved {
			approvedRequests++
		}
	}
	approvalScore := 100.0
	if totalRequests > 0 {
		approvalScore = float64(approvedRequests) / float64(totalRequests) * 100
	}
	var quality float64
	if rated > 0 {
		ratingScore := float64(ratingSum) / float64(rated) / 5 * 100
		quality = math.Round(ratingScore*0.7 + approvalScore*0.3)
	} else {
		quality = math.Round(approvalScore)
	}

	// Discipline: reports filed per weekday elapsed so far in the
	// range, capped at 100.
	workingDays := countWeekdays(rangeStart, minTime(rangeEnd, now))
	discipline := 100.0
	if workingDays > 0 {
		discipline = math.Min(float64(submitted)/float64(workingDays)*100, 100)
	}
	discipline = math.Round(discipline)

	score := math.Round(output*outputWeight + quality*qualityWeight + discipline*disciplineWeight)

	b.Output = int(output)
	b.Quality = int(quality)
	b.Discipline = int(discipline)
	b.TotalTasks = total
	b.DoneTasks = done
	b.OverdueTasks = overdue
	b.SubmittedReports = submitted
	b.RatedReports = rated
	b.TotalRequests = totalRequests
	b.ApprovedRequests = approvedRequests
	b.WorkingDays = workingDays

	return Result{
		MemberID:  memberID,
		Score:     int(score),
		Breakdown: b,
	}
}

// countWeekdays counts Monday through Friday calendar days between two
// instants, inclusive of both end dates. Zero when to precedes from.
func countWeekdays(from, to time.Time) int {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	count := 0
	for !day.After(last) {
		wd := day.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
