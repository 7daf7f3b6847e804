package domain

import "time"

// RegistrationStatus enumerates officer registration states.
type RegistrationStatus string

// Registration lifecycle states. APPROVED and REJECTED are terminal.
const (
	RegistrationPending  RegistrationStatus = "PENDING"
	RegistrationApproved RegistrationStatus = "APPROVED"
	RegistrationRejected RegistrationStatus = "REJECTED"
)

// Held reports whether the registration still commits the officer to the project.
func (s RegistrationStatus) Held() bool {
	return s == RegistrationPending || s == RegistrationApproved
}

// Registration is an officer's request to administer one project.
type Registration struct {
	Base
	OfficerNRIC string             `json:"officer_nric"`
	ProjectID   string             `json:"project_id"`
	Status      RegistrationStatus `json:"status"`
	SubmittedAt time.Time          `json:"submitted_at"`
	ReviewedAt  *time.Time         `json:"reviewed_at,omitempty"`
}

// Commitment is a window the officer already administers, keyed by project.
type Commitment struct {
	ProjectID string
	Window    Window
}

// NewRegistration validates role separation and commitment overlap and returns a PENDING registration.
// hasApplication reports whether the officer holds any application; approved lists the
// windows of the officer's APPROVED registrations.
func NewRegistration(officer Person, project Project, hasApplication bool, approved []Commitment, now time.Time) (Registration, error) {
	if err := officer.Require(RoleOfficer); err != nil {
		return Registration{}, err
	}
	if hasApplication {
		return Registration{}, EntityError(KindRoleConflict, EntityPerson, officer.NRIC, "officer already holds an application")
	}
	for _, c := range approved {
		if c.Window.Overlaps(project.Window) {
			return Registration{}, EntityError(KindOverlappingCommitment, EntityProject, project.ID,
				"window %s overlaps approved registration on project %s %s", project.Window, c.ProjectID, c.Window)
		}
	}
	return Registration{
		OfficerNRIC: officer.NRIC,
		ProjectID:   project.ID,
		Status:      RegistrationPending,
		SubmittedAt: now,
	}, nil
}

// Review applies a manager decision. Approval reserves an officer slot first; on failure
// the registration stays PENDING.
func (r *Registration) Review(approve bool, inventory *Inventory, now time.Time) error {
	if r.Status != RegistrationPending {
		return EntityError(KindAlreadyReviewed, EntityRegistration, r.ID, "already %s", r.Status)
	}
	if approve {
		if err := inventory.ReserveOfficerSlot(); err != nil {
			return err
		}
		r.Status = RegistrationApproved
	} else {
		r.Status = RegistrationRejected
	}
	reviewed := now
	r.ReviewedAt = &reviewed
	return nil
}
