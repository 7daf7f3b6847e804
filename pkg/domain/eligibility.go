package domain

import "sort"

const (
	marriedMinimumAge = 21
	singleMinimumAge  = 35
)

// EligibleFlatTypes returns the flat types the person may apply for on the project.
// Unknown marital statuses yield no types.
func EligibleFlatTypes(person Person, project Project) []FlatType {
	var allowed []FlatType
	switch {
	case person.MaritalStatus == MaritalMarried && person.Age >= marriedMinimumAge:
		allowed = []FlatType{FlatTwoRoom, FlatThreeRoom}
	case person.MaritalStatus == MaritalSingle && person.Age >= singleMinimumAge:
		allowed = []FlatType{FlatTwoRoom}
	default:
		return nil
	}
	out := make([]FlatType, 0, len(allowed))
	for _, ft := range allowed {
		if project.Offers(ft) {
			out = append(out, ft)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsEligible reports whether the person may apply for any flat type on the project.
func IsEligible(person Person, project Project) bool {
	return len(EligibleFlatTypes(person, project)) > 0
}

// EligibleFor reports whether the person may apply for this specific flat type.
func EligibleFor(person Person, project Project, flatType FlatType) bool {
	for _, ft := range EligibleFlatTypes(person, project) {
		if ft == flatType {
			return true
		}
	}
	return false
}
