package kpi

import (
	"log/slog"
	"sort"
	"time"

	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/approval"
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/task"
	"github.com/workdeskhq/workdesk/internal/workreport"
)

// MemberSource lists the members the actor may see scores for.
type MemberSource interface {
	GetMember(id string) (*member.Member, error)
	ViewableMembers(viewer *member.Member) ([]*member.Member, error)
	CanViewMember(viewer, subject *member.Member) bool
}

// TaskSource provides the task pool scored against.
type TaskSource interface {
	GetAll() ([]*task.Task, error)
}

// ReportSource provides one member's reports in a date range.
type ReportSource interface {
	GetByUserBetween(userID, fromDate, toDate string) ([]*workreport.WorkReport, error)
}

// RequestSource provides one member's review requests in a date range.
type RequestSource interface {
	GetByRequesterBetween(requesterID string, from, to time.Time) ([]*approval.ApprovalRequest, error)
}

// Service computes scores and leaderboards over live data.
type Service struct {
	members  MemberSource
	tasks    TaskSource
	reports  ReportSource
	requests RequestSource
	logger   *slog.Logger

	// now is swappable so scoring stays deterministic under test
	now func() time.Time
}

func NewService(members MemberSource, tasks TaskSource, reports ReportSource, requests RequestSource, logger *slog.Logger) *Service {
	return &Service{
		members:  members,
		tasks:    tasks,
		reports:  reports,
		requests: requests,
		logger:   logger,
		now:      time.Now,
	}
}

// ScoreMember computes one member's score for a date range, gated by
// member visibility.
func (s *Service) ScoreMember(actor *member.Member, memberID string, rangeStart, rangeEnd time.Time) (*Result, error) {
	subject, err := s.members.GetMember(memberID)
	if err != nil {
		return nil, internal.NewNotFoundError("member not found", internal.ErrCodeMemberNotFound)
	}
	if !s.members.CanViewMember(actor, subject) {
		return nil, internal.NewForbiddenError("cannot view this member's score", internal.ErrCodeUnauthorizedAccess)
	}

	result, err := s.score(subject, rangeStart, rangeEnd, s.now())
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Leaderboard scores every member the actor may view and sorts the
// results by score, descending. Equal scores keep roster order.
func (s *Service) Leaderboard(actor *member.Member, rangeStart, rangeEnd time.Time) ([]*Result, error) {
	viewable, err := s.members.ViewableMembers(actor)
	if err != nil {
		return nil, internal.NewInternalError("failed to load members", err)
	}

	now := s.now()
	results := make([]*Result, 0, len(viewable))
	for _, m := range viewable {
		r, err := s.score(m, rangeStart, rangeEnd, now)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results, nil
}

func (s *Service) score(subject *member.Member, rangeStart, rangeEnd, now time.Time) (*Result, error) {
	tasks, err := s.tasks.GetAll()
	if err != nil {
		s.logger.Error("failed to load tasks for scoring", "error", err)
		return nil, internal.NewInternalError("failed to load tasks", err)
	}
	reports, err := s.reports.GetByUserBetween(subject.ID, rangeStart.Format("2006-01-02"), rangeEnd.Format("2006-01-02"))
	if err != nil {
		s.logger.Error("failed to load reports for scoring", "error", err, "member_id", subject.ID)
		return nil, internal.NewInternalError("failed to load work reports", err)
	}
	requests, err := s.requests.GetByRequesterBetween(subject.ID, rangeStart, rangeEnd)
	if err != nil {
		s.logger.Error("failed to load requests for scoring", "error", err, "member_id", subject.ID)
		return nil, internal.NewInternalError("failed to load approval requests", err)
	}

	result := Compute(subject.ID, tasks, reports, requests, rangeStart, rangeEnd, now)
	result.Name = subject.Name
	return &result, nil
}
