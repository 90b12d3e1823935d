package services

import (
	"time"

	"github.com/sahilchouksey/campus-api/model"
)

const (
	LabelGraduated  = "Graduated"
	LabelNotStarted = "Not Started"
)

// BatchTerm is the part of a batch the current-year label depends on
type BatchTerm struct {
	StartYear     int `json:"startYear"`
	StartMonth    int `json:"startMonth"`
	EndYear       int `json:"endYear"`
	PromotedYears int `json:"promotedYears"`
}

// TermOf extracts the term of a batch
func TermOf(b model.Batch) BatchTerm {
	return BatchTerm{
		StartYear:     b.StartYear,
		StartMonth:    b.StartMonth,
		EndYear:       b.EndYear,
		PromotedYears: b.PromotedYears,
	}
}

// CurrentYearLabel names the program year a batch is in at now: "1st Year",
// "2nd Year", ..., "Graduated" past the last year, "Not Started" before the
// first. The year rolls over when now reaches the batch's start month, and
// promoted years are added on top.
func CurrentYearLabel(term BatchTerm, now time.Time) string {
	academicYear := now.Year() - term.StartYear
	if int(now.Month()) < term.StartMonth {
		academicYear--
	}
	academicYear++
	academicYear += term.PromotedYears

	if academicYear > term.EndYear-term.StartYear {
		return LabelGraduated
	}
	if academicYear <= 0 {
		return LabelNotStarted
	}
	return YearName(academicYear)
}
