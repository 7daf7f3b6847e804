package domain

import "time"

// Window is an inclusive, date-granular application period.
type Window struct {
	Open  time.Time `json:"open"`
	Close time.Time `json:"close"`
}

// Date returns midnight UTC for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// NewWindow normalises both bounds to calendar days and validates ordering.
func NewWindow(open, close time.Time) (Window, error) {
	w := Window{Open: truncateDay(open), Close: truncateDay(close)}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate rejects zero or inverted windows.
func (w Window) Validate() error {
	if w.Open.IsZero() || w.Close.IsZero() {
		return Errorf(KindInvalidArgument, "window requires open and close dates")
	}
	if w.Close.Before(w.Open) {
		return Errorf(KindInvalidArgument, "close date %s is before open date %s", w.Close.Format(time.DateOnly), w.Open.Format(time.DateOnly))
	}
	return nil
}

// Overlaps reports inclusive intersection: touching boundaries overlap.
func (w Window) Overlaps(other Window) bool {
	return !(w.Close.Before(other.Open) || other.Close.Before(w.Open))
}

// Contains reports whether the day of t falls within the window.
func (w Window) Contains(t time.Time) bool {
	day := truncateDay(t)
	return !day.Before(w.Open) && !day.After(w.Close)
}

func (w Window) String() string {
	return "[" + w.Open.Format(time.DateOnly) + ", " + w.Close.Format(time.DateOnly) + "]"
}
