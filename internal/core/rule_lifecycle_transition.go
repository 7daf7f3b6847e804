package core

import (
	"context"

	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

// LifecycleTransitionRule blocks status moves that the application and
// registration state machines do not permit.
func LifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

var registrationTerminal = toSet(string(domain.RegistrationApproved), string(domain.RegistrationRejected))

func (lifecycleTransitionRule) Name() string { return ruleLifecycleTransition }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		switch change.Entity {
		case domain.EntityApplication:
			res.Violations = append(res.Violations, applicationTransitionViolations(change)...)
		case domain.EntityRegistration:
			res.Violations = append(res.Violations, registrationTransitionViolations(change)...)
		}
	}
	return res, nil
}

func applicationTransitionViolations(change domain.Change) []domain.Violation {
	after, ok := changeAs[domain.Application](change.After)
	if !ok {
		return nil
	}
	if _, known := domain.ApplicationTransitions[after.Status]; !known {
		return []domain.Violation{blockf(ruleLifecycleTransition, domain.EntityApplication, after.ID,
			"application %s is set to invalid status %s", after.ID, after.Status)}
	}
	var out []domain.Violation
	if after.WithdrawalRequested && !after.Status.Withdrawable() {
		out = append(out, blockf(ruleLifecycleTransition, domain.EntityApplication, after.ID,
			"application %s cannot hold a withdrawal request while %s", after.ID, after.Status))
	}
	before, ok := changeAs[domain.Application](change.Before)
	if !ok {
		if after.Status != domain.ApplicationPending {
			out = append(out, blockf(ruleLifecycleTransition, domain.EntityApplication, after.ID,
				"application %s must start PENDING, got %s", after.ID, after.Status))
		}
		return out
	}
	if before.Status == after.Status {
		return out
	}
	for _, next := range domain.ApplicationTransitions[before.Status] {
		if next == after.Status {
			return out
		}
	}
	return append(out, blockf(ruleLifecycleTransition, domain.EntityApplication, after.ID,
		"cannot move application %s from %s to %s", after.ID, before.Status, after.Status))
}

func registrationTransitionViolations(change domain.Change) []domain.Violation {
	after, ok := changeAs[domain.Registration](change.After)
	if !ok {
		return nil
	}
	switch after.Status {
	case domain.RegistrationPending, domain.RegistrationApproved, domain.RegistrationRejected:
	default:
		return []domain.Violation{blockf(ruleLifecycleTransition, domain.EntityRegistration, after.ID,
			"registration %s is set to invalid status %s", after.ID, after.Status)}
	}
	before, ok := changeAs[domain.Registration](change.Before)
	if !ok {
		if after.Status != domain.RegistrationPending {
			return []domain.Violation{blockf(ruleLifecycleTransition, domain.EntityRegistration, after.ID,
				"registration %s must start PENDING, got %s", after.ID, after.Status)}
		}
		return nil
	}
	if _, terminal := registrationTerminal[string(before.Status)]; terminal && before.Status != after.Status {
		return []domain.Violation{blockf(ruleLifecycleTransition, domain.EntityRegistration, after.ID,
			"cannot move registration %s from terminal status %s to %s", after.ID, before.Status, after.Status)}
	}
	if after.Status != domain.RegistrationPending && after.ReviewedAt == nil {
		return []domain.Violation{blockf(ruleLifecycleTransition, domain.EntityRegistration, after.ID,
			"registration %s reviewed without a review date", after.ID)}
	}
	return nil
}

func toSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
