package domain

// ApplicationStatus enumerates the application lifecycle states.
type ApplicationStatus string

// Application lifecycle states.
const (
	ApplicationPending        ApplicationStatus = "PENDING"
	ApplicationSuccessful     ApplicationStatus = "SUCCESSFUL"
	ApplicationPendingBooking ApplicationStatus = "PENDING_BOOKING"
	ApplicationBooked         ApplicationStatus = "BOOKED"
	ApplicationUnsuccessful   ApplicationStatus = "UNSUCCESSFUL"
)

// ApplicationTransitions lists the permitted status moves. Staying in place is always allowed.
var ApplicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationPending:        {ApplicationSuccessful, ApplicationUnsuccessful},
	ApplicationSuccessful:     {ApplicationPendingBooking, ApplicationUnsuccessful},
	ApplicationPendingBooking: {ApplicationBooked},
	ApplicationBooked:         {ApplicationUnsuccessful},
	ApplicationUnsuccessful:   nil,
}

// Withdrawable reports whether a withdrawal request may be held in this status.
func (s ApplicationStatus) Withdrawable() bool {
	return s == ApplicationSuccessful || s == ApplicationBooked
}

// Application is an applicant's request for one flat type in one project.
type Application struct {
	Base
	ApplicantNRIC       string            `json:"applicant_nric"`
	ProjectID           string            `json:"project_id"`
	FlatType            FlatType          `json:"flat_type"`
	Status              ApplicationStatus `json:"status"`
	WithdrawalRequested bool              `json:"withdrawal_requested"`
}

// WithdrawalOutcome reports how a withdrawal review concluded.
type WithdrawalOutcome string

// Withdrawal review outcomes. A declined review is not an error and mutates nothing.
const (
	WithdrawalApproved WithdrawalOutcome = "approved"
	WithdrawalDeclined WithdrawalOutcome = "declined"
)

// NewApplication validates eligibility and returns a PENDING application.
// Quota is not consulted here.
func NewApplication(applicant Person, project Project, flatType FlatType) (Application, error) {
	if err := applicant.Require(RoleApplicant); err != nil {
		return Application{}, err
	}
	if !project.Offers(flatType) {
		return Application{}, EntityError(KindNotEligible, EntityProject, project.ID, "project does not offer %s", flatType)
	}
	if !EligibleFor(applicant, project, flatType) {
		return Application{}, EntityError(KindNotEligible, EntityPerson, applicant.NRIC, "not eligible for %s in project %s", flatType, project.Name)
	}
	return Application{
		ApplicantNRIC: applicant.NRIC,
		ProjectID:     project.ID,
		FlatType:      flatType,
		Status:        ApplicationPending,
	}, nil
}

func (a Application) invalidState(action string) *Error {
	return EntityError(KindInvalidState, EntityApplication, a.ID, "cannot %s while %s (withdrawal requested: %t)", action, a.Status, a.WithdrawalRequested)
}

// CanReview checks the review precondition.
func (a Application) CanReview() error {
	if a.Status != ApplicationPending || a.WithdrawalRequested {
		return a.invalidState("review")
	}
	return nil
}

// Review applies a manager decision. Approval only checks the quota; it does not reserve.
func (a *Application) Review(approve bool, inventory Inventory) error {
	if err := a.CanReview(); err != nil {
		return err
	}
	if !approve {
		a.Status = ApplicationUnsuccessful
		return nil
	}
	if inventory.Available(a.FlatType) <= 0 {
		return EntityError(KindInsufficientInventory, EntityApplication, a.ID, "no %s units remaining", a.FlatType)
	}
	a.Status = ApplicationSuccessful
	return nil
}

// RequestBooking moves a successful application into the booking queue.
func (a *Application) RequestBooking() error {
	if a.Status != ApplicationSuccessful || a.WithdrawalRequested {
		return a.invalidState("request booking")
	}
	a.Status = ApplicationPendingBooking
	return nil
}

// Book reserves a unit and marks the application booked. On failure neither side changes.
func (a *Application) Book(inventory *Inventory) error {
	if a.Status != ApplicationPendingBooking {
		return a.invalidState("book")
	}
	if err := inventory.ReserveUnit(a.FlatType); err != nil {
		return err
	}
	a.Status = ApplicationBooked
	return nil
}

// RequestWithdrawal raises the withdrawal flag.
func (a *Application) RequestWithdrawal() error {
	if !a.Status.Withdrawable() || a.WithdrawalRequested {
		return a.invalidState("request withdrawal")
	}
	a.WithdrawalRequested = true
	return nil
}

// CanReviewWithdrawal checks that a withdrawal request is outstanding.
func (a Application) CanReviewWithdrawal() error {
	if !a.WithdrawalRequested {
		return EntityError(KindInvalidState, EntityApplication, a.ID, "no withdrawal request to review")
	}
	return nil
}

// ApproveWithdrawal releases a booked unit and retires the application.
func (a *Application) ApproveWithdrawal(inventory *Inventory) error {
	if err := a.CanReviewWithdrawal(); err != nil {
		return err
	}
	if a.Status == ApplicationBooked {
		if err := inventory.ReleaseUnit(a.FlatType, 1); err != nil {
			return err
		}
	}
	a.Status = ApplicationUnsuccessful
	a.WithdrawalRequested = false
	return nil
}
