// Package grading computes weighted final grades, GPA and attendance rates.
package grading

import (
	"math"
	"strings"

	"github.com/noah-isme/edu-crm-api/internal/models"
	"github.com/noah-isme/edu-crm-api/pkg/config"
)

// Mode selects how missing assessments are treated.
type Mode string

const (
	// ModeCompat treats missing terms as zero and drops the midterm band unless both midterms exist.
	ModeCompat Mode = "compat"
	// ModeProrate rescales the result by the weights of the bands that have data.
	ModeProrate Mode = "prorate"
)

// Weights are the band weights; they are expected to sum to 1.0.
type Weights struct {
	Attendance float64
	Activity   float64
	Midterm    float64
	Final      float64
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Attendance + w.Activity + w.Midterm + w.Final
}

// Policy is the scoring policy used for transcripts and reports.
type Policy struct {
	Weights Weights
	Mode    Mode
}

// NewPolicy builds a policy from configuration. Unknown modes fall back to compat.
func NewPolicy(cfg config.GradingConfig) Policy {
	mode := Mode(strings.ToLower(cfg.Mode))
	if mode != ModeProrate {
		mode = ModeCompat
	}
	return Policy{
		Weights: Weights{
			Attendance: cfg.AttendanceWeight,
			Activity:   cfg.ActivityWeight,
			Midterm:    cfg.MidtermWeight,
			Final:      cfg.FinalWeight,
		},
		Mode: mode,
	}
}

// FinalGrade computes the weighted course grade from the attendance percentage and recorded grades.
// The result is not rounded or clamped.
func (p Policy) FinalGrade(attendancePct float64, grades map[models.GradeType]float64) float64 {
	attendance := math.Min(attendancePct, 100)
	activity, hasActivity := grades[models.GradeActivity]
	m1, hasM1 := grades[models.GradeMidterm1]
	m2, hasM2 := grades[models.GradeMidterm2]
	final, hasFinal := grades[models.GradeFinal]

	if p.Mode == ModeProrate {
		total := attendance * p.Weights.Attendance
		weight := p.Weights.Attendance
		if hasActivity {
			total += activity * p.Weights.Activity
			weight += p.Weights.Activity
		}
		switch {
		case hasM1 && hasM2:
			total += (m1 + m2) / 2 * p.Weights.Midterm
			weight += p.Weights.Midterm
		case hasM1:
			total += m1 * p.Weights.Midterm
			weight += p.Weights.Midterm
		case hasM2:
			total += m2 * p.Weights.Midterm
			weight += p.Weights.Midterm
		}
		if hasFinal {
			total += final * p.Weights.Final
			weight += p.Weights.Final
		}
		if weight == 0 {
			return 0
		}
		return total / weight
	}

	total := attendance * p.Weights.Attendance
	if hasActivity {
		total += activity * p.Weights.Activity
	}
	if hasM1 && hasM2 {
		total += (m1 + m2) / 2 * p.Weights.Midterm
	}
	if hasFinal {
		total += final * p.Weights.Final
	}
	return total
}

// Entry is one course contribution to a GPA rollup.
type Entry struct {
	FinalGrade float64
	Credits    int
	// HasData is true when the course has any attendance or grade rows.
	HasData bool
}

// GPA returns the credit-weighted average of final grades.
// Compat mode skips entries whose final grade is zero; prorate mode includes every entry with data.
func (p Policy) GPA(entries []Entry) float64 {
	var weighted float64
	var credits int
	for _, e := range entries {
		if p.Mode == ModeProrate {
			if !e.HasData {
				continue
			}
		} else if e.FinalGrade == 0 {
			continue
		}
		weighted += e.FinalGrade * float64(e.Credits)
		credits += e.Credits
	}
	if credits == 0 {
		return 0
	}
	return weighted / float64(credits)
}

// IncludedCredits returns the credits counted by GPA for the same entries.
func (p Policy) IncludedCredits(entries []Entry) int {
	var credits int
	for _, e := range entries {
		if p.Mode == ModeProrate {
			if e.HasData {
				credits += e.Credits
			}
		} else if e.FinalGrade != 0 {
			credits += e.Credits
		}
	}
	return credits
}

// AttendanceRate returns present/total as a percentage, 0 when there are no rows.
func AttendanceRate(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}

// Round2 rounds to two decimals for presentation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
