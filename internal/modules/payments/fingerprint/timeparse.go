package fingerprint

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

var dayFirstPattern = regexp.MustCompile(`^(\d{1,2})[/\-](\d{1,2})[/\-](\d{2,4})(?:\s+(\d{1,2}):(\d{2}))?$`)

// TimeParser reads declared payment timestamps. Day-first dates are tried before
// free-form layouts; anything unreadable falls back to the ingestion time.
type TimeParser struct {
	loc *time.Location
	cfg *now.Config
}

func NewTimeParser(loc *time.Location) *TimeParser {
	if loc == nil {
		loc = time.Local
	}
	return &TimeParser{
		loc: loc,
		cfg: &now.Config{
			WeekStartDay: time.Monday,
			TimeLocation: loc,
			TimeFormats:  now.TimeFormats,
		},
	}
}

func (p *TimeParser) Location() *time.Location { return p.loc }

// Parse never fails: empty or unparsable input returns at.
func (p *TimeParser) Parse(raw string, at time.Time) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return at
	}
	if m := dayFirstPattern.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		yearText := m[3]
		if len(yearText) == 2 {
			yearText = "20" + yearText
		}
		year, _ := strconv.Atoi(yearText)
		hour, minute := 0, 0
		if m[4] != "" {
			hour, _ = strconv.Atoi(m[4])
			minute, _ = strconv.Atoi(m[5])
		}
		return time.Date(year, time.Month(month), day, hour, minute, 0, 0, p.loc)
	}
	t, err := p.cfg.With(at.In(p.loc)).Parse(s)
	if err != nil || t.IsZero() {
		return at
	}
	return t
}
