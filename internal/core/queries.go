package core

import (
	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

// GetProject returns a project by ID.
func (s *Service) GetProject(id string) (Project, error) {
	p, ok := s.store.GetProject(id)
	if !ok {
		return Project{}, domain.NotFound(EntityProject, id)
	}
	return p, nil
}

// GetProjectByName looks a project up by case-insensitive name.
func (s *Service) GetProjectByName(name string) (Project, error) {
	for _, p := range s.store.ListProjects() {
		if domain.SameName(p.Name, name) {
			return p, nil
		}
	}
	return Project{}, domain.NotFound(EntityProject, name)
}

// ListProjects returns every project in ID order.
func (s *Service) ListProjects() []Project {
	return s.store.ListProjects()
}

// ListVisibleProjects returns the projects applicants can see.
func (s *Service) ListVisibleProjects() []Project {
	return s.FilterProjects(ProjectFilter{VisibleOnly: true})
}

// ListProjectsByManager returns the projects owned by a manager.
func (s *Service) ListProjectsByManager(nric string) []Project {
	nric = normalizeNRIC(nric)
	var out []Project
	for _, p := range s.store.ListProjects() {
		if p.ManagerNRIC == nric {
			out = append(out, p)
		}
	}
	return out
}

// FilterProjects applies filter to all projects.
func (s *Service) FilterProjects(filter ProjectFilter) []Project {
	return filter.Apply(s.store.ListProjects())
}

// ListProjectsForApplicant returns the visible projects the person is eligible
// for, narrowed by filter. Officers do not see projects they registered for.
func (s *Service) ListProjectsForApplicant(nric string, filter ProjectFilter) ([]Project, error) {
	person, err := s.GetPerson(nric)
	if err != nil {
		return nil, err
	}
	registered := make(map[string]struct{})
	if person.HasRole(domain.RoleOfficer) {
		for _, r := range s.ListRegistrationsByOfficer(person.NRIC) {
			registered[r.ProjectID] = struct{}{}
		}
	}
	filter.VisibleOnly = true
	candidates := filter.Apply(s.store.ListProjects())
	out := make([]Project, 0, len(candidates))
	for _, p := range candidates {
		if _, skip := registered[p.ID]; skip {
			continue
		}
		if domain.IsEligible(person, p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetApplication returns an application by ID.
func (s *Service) GetApplication(id string) (Application, error) {
	a, ok := s.store.GetApplication(id)
	if !ok {
		return Application{}, domain.NotFound(EntityApplication, id)
	}
	return a, nil
}

// GetApplicationByApplicant returns the single application an applicant holds.
func (s *Service) GetApplicationByApplicant(nric string) (Application, error) {
	nric = normalizeNRIC(nric)
	for _, a := range s.store.ListApplications() {
		if a.ApplicantNRIC == nric {
			return a, nil
		}
	}
	return Application{}, domain.NotFound(EntityApplication, nric)
}

func (s *Service) filterApplications(match func(Application) bool) []Application {
	var out []Application
	for _, a := range s.store.ListApplications() {
		if match(a) {
			out = append(out, a)
		}
	}
	return out
}

// ListApplicationsByProject returns the applications for a project.
func (s *Service) ListApplicationsByProject(projectID string) []Application {
	return s.filterApplications(func(a Application) bool { return a.ProjectID == projectID })
}

// ListApplicationsByStatus returns the applications in one status.
func (s *Service) ListApplicationsByStatus(status domain.ApplicationStatus) []Application {
	return s.filterApplications(func(a Application) bool { return a.Status == status })
}

// ListWithdrawalRequests returns applications awaiting a withdrawal review.
func (s *Service) ListWithdrawalRequests() []Application {
	return s.filterApplications(func(a Application) bool { return a.WithdrawalRequested })
}

// ListBookedApplications returns every BOOKED application.
func (s *Service) ListBookedApplications() []Application {
	return s.ListApplicationsByStatus(domain.ApplicationBooked)
}

// ListBookingQueue returns the PENDING_BOOKING applications on projects the
// officer is approved for.
func (s *Service) ListBookingQueue(officerNRIC string) []Application {
	projects := make(map[string]struct{})
	for _, r := range s.ListRegistrationsByOfficer(officerNRIC) {
		if r.Status == domain.RegistrationApproved {
			projects[r.ProjectID] = struct{}{}
		}
	}
	return s.filterApplications(func(a Application) bool {
		_, ok := projects[a.ProjectID]
		return ok && a.Status == domain.ApplicationPendingBooking
	})
}

// GetRegistration returns a registration by ID.
func (s *Service) GetRegistration(id string) (Registration, error) {
	r, ok := s.store.GetRegistration(id)
	if !ok {
		return Registration{}, domain.NotFound(EntityRegistration, id)
	}
	return r, nil
}

func (s *Service) filterRegistrations(match func(Registration) bool) []Registration {
	var out []Registration
	for _, r := range s.store.ListRegistrations() {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

// ListRegistrationsByOfficer returns every registration an officer filed.
func (s *Service) ListRegistrationsByOfficer(nric string) []Registration {
	nric = normalizeNRIC(nric)
	return s.filterRegistrations(func(r Registration) bool { return r.OfficerNRIC == nric })
}

// ListRegistrationsByProject returns a project's registrations, optionally
// narrowed to one status.
func (s *Service) ListRegistrationsByProject(projectID string, status *domain.RegistrationStatus) []Registration {
	return s.filterRegistrations(func(r Registration) bool {
		return r.ProjectID == projectID && (status == nil || r.Status == *status)
	})
}

// ListApprovedRegistrations returns the officers approved for a project.
func (s *Service) ListApprovedRegistrations(projectID string) []Registration {
	approved := domain.RegistrationApproved
	return s.ListRegistrationsByProject(projectID, &approved)
}

// ListRegistrationsByManager returns registrations for every project the
// manager owns.
func (s *Service) ListRegistrationsByManager(nric string) []Registration {
	owned := make(map[string]struct{})
	for _, p := range s.ListProjectsByManager(nric) {
		owned[p.ID] = struct{}{}
	}
	return s.filterRegistrations(func(r Registration) bool {
		_, ok := owned[r.ProjectID]
		return ok
	})
}
