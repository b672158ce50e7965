package weeklyplan

import (
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/permissions"
)

// ResolveDefaultApprover finds the member whose role label matches the
// subject's reportsTo text. When that match lands on a Board-level role
// and the subject is below manager rank, the approver is forced down to
// the Manager role so that staff plans never route directly to the
// Board. Returns nil when nothing matches.
func ResolveDefaultApprover(subject *member.Member, roster []*member.Member) *member.Member {
	var resolved *member.Member
	for _, m := range roster {
		if m.ID == subject.ID || !m.IsActive {
			continue
		}
		if m.RoleLabel() == subject.ReportsTo {
			resolved = m
			break
		}
	}

	if resolved != nil && resolved.Level() == 5 && !subject.IsManagerRank() {
		for _, m := range roster {
			if m.Role == permissions.RoleManager && m.IsActive && m.ID != subject.ID {
				return m
			}
		}
	}

	return resolved
}

// ApproverCandidates lists members the submitter may pick as approver:
// anyone at seniority level 3 or above, plus level-2 leaders when the
// submitter's own level is at most 2.
func ApproverCandidates(submitter *member.Member, roster []*member.Member) []*member.Member {
	var candidates []*member.Member
	for _, m := range roster {
		if m.ID == submitter.ID || !m.IsActive {
			continue
		}
		if m.Level() >= 3 {
			candidates = append(candidates, m)
			continue
		}
		if m.Level() == 2 && submitter.Level() <= 2 {
			candidates = append(candidates, m)
		}
	}
	return candidates
}
