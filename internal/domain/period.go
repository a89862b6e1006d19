package domain

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
)

// Period is a declared statement period, inclusive on both ends.
type Period struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// ParsePeriod reads "YYYY-MM-DD..YYYY-MM-DD".
func ParsePeriod(s string) (*Period, error) {
	parts := strings.Split(s, "..")
	if len(parts) != 2 {
		return nil, fmt.Errorf("period %q: expected START..END", s)
	}
	start, err := civil.ParseDate(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("period %q: start: %w", s, err)
	}
	end, err := civil.ParseDate(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("period %q: end: %w", s, err)
	}
	p := &Period{Start: start, End: end}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate requires a valid start no later than end.
func (p Period) Validate() error {
	if !p.Start.IsValid() || !p.End.IsValid() {
		return fmt.Errorf("period dates are invalid")
	}
	if p.End.Before(p.Start) {
		return fmt.Errorf("period end %s is before start %s", p.End, p.Start)
	}
	return nil
}

func (p Period) String() string {
	return p.Start.String() + ".." + p.End.String()
}
