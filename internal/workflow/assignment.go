package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cristian75IT/kronos-core/internal/external"
	"github.com/cristian75IT/kronos-core/internal/model"
)

const (
	roleTokenExecutiveLevelPrefix = "EXECUTIVE_LEVEL:"
	roleTokenDynamicPrefix        = "DYNAMIC:"
	dynamicDepartmentManager      = "DEPARTMENT_MANAGER"
	dynamicServiceCoordinator     = "SERVICE_COORDINATOR"
)

// ResolveApprovers runs the three resolution strategies in order, stopping
// at the first that yields at least one approver (spec §4.1 "Approver
// assignment"), then applies the self-approval and max-approvers rules.
// callerSupplied, when non-empty, is used verbatim and skips the other two
// strategies. An empty return is not an error — the caller creates the
// request PENDING with no approvers and logs NoApproversResolved.
func ResolveApprovers(ctx context.Context, dir external.Directory, cfg *model.WorkflowConfig, requesterID uuid.UUID, callerSupplied []uuid.UUID) ([]uuid.UUID, error) {
	approvers := callerSupplied

	if len(approvers) == 0 && len(cfg.ApproverRoleIDs) > 0 {
		resolved, err := resolveRoleTokens(ctx, dir, cfg.ApproverRoleIDs, requesterID)
		if err != nil {
			return nil, err
		}
		approvers = resolved
	}

	if len(approvers) == 0 && cfg.AutoAssignApprovers {
		users, err := dir.GetApprovers(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve approvers by capability flag: %w", err)
		}
		approvers = userIDs(users)
	}

	if !cfg.AllowSelfApproval {
		approvers = removeUser(approvers, requesterID)
	}
	if cfg.MaxApprovers > 0 && len(approvers) > cfg.MaxApprovers {
		approvers = approvers[:cfg.MaxApprovers]
	}
	return approvers, nil
}

func resolveRoleTokens(ctx context.Context, dir external.Directory, tokens []string, requesterID uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var resolved []uuid.UUID

	add := func(users []external.User) {
		for _, u := range users {
			if seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			resolved = append(resolved, u.ID)
		}
	}

	for _, token := range tokens {
		switch {
		case strings.HasPrefix(token, roleTokenExecutiveLevelPrefix):
			levelID := strings.TrimPrefix(token, roleTokenExecutiveLevelPrefix)
			users, err := dir.GetUsers(ctx, external.UserFilter{ExecutiveLevelID: &levelID})
			if err != nil {
				return nil, fmt.Errorf("resolve executive level %q: %w", levelID, err)
			}
			add(users)

		case strings.HasPrefix(token, roleTokenDynamicPrefix):
			kind := strings.TrimPrefix(token, roleTokenDynamicPrefix)
			user, err := dynamicApprover(ctx, dir, kind, requesterID)
			if err != nil {
				return nil, err
			}
			if user != nil {
				add([]external.User{*user})
			}

		default:
			users, err := dir.GetUsers(ctx, external.UserFilter{Role: &token})
			if err != nil {
				return nil, fmt.Errorf("resolve role %q: %w", token, err)
			}
			add(users)
		}
	}
	return resolved, nil
}

// dynamicApprover resolves a DYNAMIC:* token by looking up the requester's
// organizational relation (department manager or service coordinator).
func dynamicApprover(ctx context.Context, dir external.Directory, kind string, requesterID uuid.UUID) (*external.User, error) {
	requester, err := dir.GetUser(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("resolve requester for dynamic approver: %w", err)
	}

	var approverID *uuid.UUID
	switch kind {
	case dynamicDepartmentManager:
		if requester.DepartmentID == nil {
			return nil, nil
		}
		dept, err := dir.GetDepartment(ctx, *requester.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("resolve department manager: %w", err)
		}
		approverID = dept.ManagerID
	case dynamicServiceCoordinator:
		if requester.ServiceID == nil {
			return nil, nil
		}
		svc, err := dir.GetService(ctx, *requester.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("resolve service coordinator: %w", err)
		}
		approverID = svc.CoordinatorID
	default:
		return nil, nil
	}

	if approverID == nil {
		return nil, nil
	}
	return dir.GetUser(ctx, *approverID)
}

func userIDs(users []external.User) []uuid.UUID {
	ids := make([]uuid.UUID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids
}

func removeUser(ids []uuid.UUID, target uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// RequiredApprovals computes the tally threshold for a mode given the total
// number of assigned approvers (spec §4.1 table).
func RequiredApprovals(mode model.ApprovalMode, assigned int) int {
	switch mode {
	case model.ApprovalModeAny:
		return 1
	case model.ApprovalModeAll, model.ApprovalModeSequential:
		return assigned
	case model.ApprovalModeMajority:
		return assigned/2 + 1
	default:
		return assigned
	}
}
