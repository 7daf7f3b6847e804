package domain

import (
	"fmt"
	"strings"
	"time"
)

// Receipt is the immutable artifact produced when a flat is booked.
type Receipt struct {
	ID                     string        `json:"id"`
	ApplicationID          string        `json:"application_id"`
	ApplicantNRIC          string        `json:"applicant_nric"`
	ApplicantName          string        `json:"applicant_name"`
	ApplicantAge           int           `json:"applicant_age"`
	ApplicantMaritalStatus MaritalStatus `json:"applicant_marital_status"`
	ProjectID              string        `json:"project_id"`
	ProjectName            string        `json:"project_name"`
	Neighborhood           string        `json:"neighborhood"`
	FlatType               FlatType      `json:"flat_type"`
	OfficerNRIC            string        `json:"officer_nric"`
	OfficerName            string        `json:"officer_name"`
	IssuedAt               time.Time     `json:"issued_at"`
}

// NewReceipt snapshots the parties of a booking.
func NewReceipt(id string, app Application, applicant Person, project Project, officer Person, issuedAt time.Time) Receipt {
	return Receipt{
		ID:                     id,
		ApplicationID:          app.ID,
		ApplicantNRIC:          applicant.NRIC,
		ApplicantName:          applicant.Name,
		ApplicantAge:           applicant.Age,
		ApplicantMaritalStatus: applicant.MaritalStatus,
		ProjectID:              project.ID,
		ProjectName:            project.Name,
		Neighborhood:           project.Neighborhood,
		FlatType:               app.FlatType,
		OfficerNRIC:            officer.NRIC,
		OfficerName:            officer.Name,
		IssuedAt:               issuedAt,
	}
}

// Text renders the receipt for display or print.
func (r Receipt) Text() string {
	var b strings.Builder
	b.WriteString("=== BTO Application Receipt ===\n")
	fmt.Fprintf(&b, "Receipt: %s\n", r.ID)
	fmt.Fprintf(&b, "Date Issued: %s\n", r.IssuedAt.Format(time.DateOnly))
	fmt.Fprintf(&b, "Time Issued: %s\n", r.IssuedAt.Format(time.TimeOnly))
	fmt.Fprintf(&b, "Applicant Name: %s\n", r.ApplicantName)
	fmt.Fprintf(&b, "Applicant NRIC: %s\n", r.ApplicantNRIC)
	fmt.Fprintf(&b, "Applicant Age: %d\n", r.ApplicantAge)
	fmt.Fprintf(&b, "Applicant Marital Status: %s\n", r.ApplicantMaritalStatus)
	fmt.Fprintf(&b, "Project: %s (%s)\n", r.ProjectName, r.Neighborhood)
	fmt.Fprintf(&b, "Flat Type: %s\n", r.FlatType)
	fmt.Fprintf(&b, "Issued By: %s\n", r.OfficerName)
	b.WriteString("===============================")
	return b.String()
}
