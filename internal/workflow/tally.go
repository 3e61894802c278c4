package workflow

import "github.com/cristian75IT/kronos-core/internal/model"

// tallyOutcome is the resolution verdict produced by applyTally: either the
// request stays PENDING (resolved=false, possibly advancing the SEQUENTIAL
// cursor) or it has reached a terminal status.
type tallyOutcome struct {
	resolved bool
	status   model.ApprovalStatus
	advance  bool // SEQUENTIAL only: current_level should advance
}

// applyTally implements the per-mode resolution rule (spec §4.1 table).
// req.MaxLevel holds the total number of assigned approvers regardless of
// mode (for SEQUENTIAL it also doubles as the last level); req.CurrentLevel
// only moves for SEQUENTIAL. sequentialLevelCleared reports whether every
// decision at the current level has been made (SEQUENTIAL only).
func applyTally(mode model.ApprovalMode, req *model.ApprovalRequest, anyConditional bool, sequentialLevelCleared bool) tallyOutcome {
	assigned := req.MaxLevel

	switch mode {
	case model.ApprovalModeAny:
		if req.ReceivedApprovals >= 1 {
			return approvedOutcome(anyConditional)
		}
		if req.ReceivedRejections >= 1 {
			return tallyOutcome{resolved: true, status: model.ApprovalStatusRejected}
		}

	case model.ApprovalModeAll:
		if req.ReceivedRejections >= 1 {
			return tallyOutcome{resolved: true, status: model.ApprovalStatusRejected}
		}
		if req.ReceivedApprovals >= assigned {
			return approvedOutcome(anyConditional)
		}

	case model.ApprovalModeSequential:
		if req.ReceivedRejections >= 1 {
			return tallyOutcome{resolved: true, status: model.ApprovalStatusRejected}
		}
		if sequentialLevelCleared {
			if req.CurrentLevel+1 > assigned {
				return approvedOutcome(anyConditional)
			}
			return tallyOutcome{resolved: false, advance: true}
		}

	case model.ApprovalModeMajority:
		if req.ReceivedApprovals >= req.RequiredApprovals {
			return approvedOutcome(anyConditional)
		}
		if req.ReceivedRejections > assigned-req.RequiredApprovals {
			return tallyOutcome{resolved: true, status: model.ApprovalStatusRejected}
		}
	}

	return tallyOutcome{resolved: false}
}

func approvedOutcome(anyConditional bool) tallyOutcome {
	if anyConditional {
		return tallyOutcome{resolved: true, status: model.ApprovalStatusApprovedConditional}
	}
	return tallyOutcome{resolved: true, status: model.ApprovalStatusApproved}
}
