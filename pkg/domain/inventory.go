package domain

// MaxOfficerSlots bounds the officer slot counter of every project.
const MaxOfficerSlots = 10

// Inventory holds a project's flat quotas and officer slot counter. The
// methods below are the only write path for these counters.
type Inventory struct {
	Units        map[FlatType]int `json:"units"`
	OfficerSlots int              `json:"officer_slots"`
}

// NewInventory validates and copies the initial counters.
func NewInventory(units map[FlatType]int, officerSlots int) (Inventory, error) {
	inv := Inventory{Units: make(map[FlatType]int, len(units)), OfficerSlots: officerSlots}
	for ft, n := range units {
		inv.Units[ft] = n
	}
	if err := inv.Validate(); err != nil {
		return Inventory{}, err
	}
	return inv, nil
}

// Validate checks quota and slot bounds.
func (i Inventory) Validate() error {
	for ft, n := range i.Units {
		if !ft.Valid() {
			return Errorf(KindInvalidArgument, "unknown flat type %q", ft)
		}
		if n < 0 {
			return Errorf(KindInvalidArgument, "quota for %s cannot be negative (%d)", ft, n)
		}
	}
	if i.OfficerSlots < 0 || i.OfficerSlots > MaxOfficerSlots {
		return Errorf(KindInvalidArgument, "officer slots must be within [0,%d], got %d", MaxOfficerSlots, i.OfficerSlots)
	}
	return nil
}

// Offers reports whether the flat type is listed.
func (i Inventory) Offers(flatType FlatType) bool {
	_, ok := i.Units[flatType]
	return ok
}

// Available returns the remaining quota for a flat type.
func (i Inventory) Available(flatType FlatType) int {
	return i.Units[flatType]
}

// ReserveUnit takes one unit of the flat type.
func (i *Inventory) ReserveUnit(flatType FlatType) error {
	if i.Units[flatType] <= 0 {
		return Errorf(KindInsufficientInventory, "no %s units remaining", flatType)
	}
	i.Units[flatType]--
	return nil
}

// ReleaseUnit returns count units of the flat type.
func (i *Inventory) ReleaseUnit(flatType FlatType, count int) error {
	if count < 0 {
		return Errorf(KindInvalidArgument, "cannot release a negative number of units (%d)", count)
	}
	if !flatType.Valid() {
		return Errorf(KindInvalidArgument, "unknown flat type %q", flatType)
	}
	if i.Units == nil {
		i.Units = make(map[FlatType]int)
	}
	i.Units[flatType] += count
	return nil
}

// ReserveOfficerSlot takes one officer slot.
func (i *Inventory) ReserveOfficerSlot() error {
	if i.OfficerSlots <= 0 {
		return Errorf(KindNoSlotsAvailable, "no officer slots remaining")
	}
	i.OfficerSlots--
	return nil
}

// ReleaseOfficerSlot returns one officer slot.
func (i *Inventory) ReleaseOfficerSlot() error {
	if i.OfficerSlots >= MaxOfficerSlots {
		return Errorf(KindSlotLimitExceeded, "officer slots already at maximum %d", MaxOfficerSlots)
	}
	i.OfficerSlots++
	return nil
}

// Clone returns a deep copy.
func (i Inventory) Clone() Inventory {
	cp := Inventory{OfficerSlots: i.OfficerSlots}
	if i.Units != nil {
		cp.Units = make(map[FlatType]int, len(i.Units))
		for ft, n := range i.Units {
			cp.Units[ft] = n
		}
	}
	return cp
}
