package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sahilchouksey/campus-api/database"
)

const (
	CollegeName = "Gandhi Engineering College"

	// PlaceholderID marks the sentinel document that keeps an empty collection enumerable
	PlaceholderID = "_placeholder"

	DefaultSectionID   = "sec-a"
	DefaultSectionName = "Section A"

	// DefaultStartMonth is August
	DefaultStartMonth = 8

	semestersPerYear = 2
)

// Collection names of the hierarchy
const (
	collColleges  = "colleges"
	collDegrees   = "degrees"
	collStreams   = "streams"
	collBatches   = "batches"
	collYears     = "years"
	collSemesters = "semesters"
	collSections  = "sections"
	collUsers     = "users"
)

// LeafCollections exist under every section
var LeafCollections = []string{"students", "teachers", "subjects", "assignments", "notes", "notice"}

// DefaultStreams maps a degree name to the streams it is provisioned with.
// Unknown degrees get a single "General" stream.
var DefaultStreams = map[string][]string{
	"B.Tech":  {"CSE", "AIML", "Data Science"},
	"MCA":     {"General"},
	"MBA":     {"General", "HR", "Finance", "Marketing"},
	"BCA":     {"General"},
	"BBA":     {"General"},
	"Nursing": {"General"},
}

// StreamsFor returns the default streams of a degree name
func StreamsFor(degreeName string) []string {
	if streams, ok := DefaultStreams[degreeName]; ok {
		return streams
	}
	return []string{"General"}
}

// subcollections lists, per collection, the child collections each of its
// documents owns. Deletion walks the tree with this table.
var subcollections = map[string][]string{
	collDegrees:   {collStreams},
	collStreams:   {collBatches},
	collBatches:   {collYears},
	collYears:     {collSemesters},
	collSemesters: {collSections},
	collSections:  LeafCollections,
}

func placeholderData() map[string]interface{} {
	return map[string]interface{}{"initialized": true}
}

func isPlaceholder(doc database.Document) bool {
	return doc.ID == PlaceholderID
}

// DegreeID derives a degree id from its name: "B.Tech" -> "btech"
func DegreeID(name string) string {
	id := strings.ToLower(name)
	id = strings.ReplaceAll(id, ".", "")
	return strings.ReplaceAll(id, " ", "-")
}

// StreamID derives a stream id from its name: "Data Science" -> "data-science"
func StreamID(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

func YearID(n int) string     { return fmt.Sprintf("%d-year", n) }
func SemesterID(n int) string { return fmt.Sprintf("%d-sem", n) }

// Ordinal renders 1st, 2nd, 3rd and Nth for everything else, 11-13 included
func Ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	default:
		return fmt.Sprintf("%dth", n)
	}
}

func YearName(n int) string     { return Ordinal(n) + " Year" }
func SemesterName(n int) string { return Ordinal(n) + " Semester" }

func validID(id string) bool {
	return id != "" && id != PlaceholderID && !strings.Contains(id, "/")
}

// StreamRef addresses a stream
type StreamRef struct {
	DegreeID string `json:"degreeId"`
	StreamID string `json:"streamId"`
}

// BatchRef addresses a batch
type BatchRef struct {
	StreamRef
	BatchID string `json:"batchId"`
}

// YearRef addresses a year of a batch
type YearRef struct {
	BatchRef
	YearID string `json:"yearId"`
}

// SemesterRef addresses a semester
type SemesterRef struct {
	YearRef
	SemesterID string `json:"semesterId"`
}

// SectionRef addresses a section
type SectionRef struct {
	SemesterRef
	SectionID string `json:"sectionId"`
}

func (r StreamRef) valid() bool   { return validID(r.DegreeID) && validID(r.StreamID) }
func (r BatchRef) valid() bool    { return r.StreamRef.valid() && validID(r.BatchID) }
func (r YearRef) valid() bool     { return r.BatchRef.valid() && validID(r.YearID) }
func (r SemesterRef) valid() bool { return r.YearRef.valid() && validID(r.SemesterID) }
func (r SectionRef) valid() bool  { return r.SemesterRef.valid() && validID(r.SectionID) }

// Hierarchy builds store paths below colleges/<collegeID>
type Hierarchy struct {
	CollegeID string
}

func (h Hierarchy) CollegePath() string { return database.JoinPath(collColleges, h.CollegeID) }

// Collection returns a college-level collection such as departments
func (h Hierarchy) Collection(name string) string {
	return database.JoinPath(h.CollegePath(), name)
}

func (h Hierarchy) DegreesPath() string { return h.Collection(collDegrees) }

func (h Hierarchy) DegreePath(degreeID string) string {
	return database.JoinPath(h.DegreesPath(), degreeID)
}

func (h Hierarchy) StreamsPath(degreeID string) string {
	return database.JoinPath(h.DegreePath(degreeID), collStreams)
}

func (h Hierarchy) StreamPath(r StreamRef) string {
	return database.JoinPath(h.StreamsPath(r.DegreeID), r.StreamID)
}

func (h Hierarchy) BatchesPath(r StreamRef) string {
	return database.JoinPath(h.StreamPath(r), collBatches)
}

func (h Hierarchy) BatchPath(r BatchRef) string {
	return database.JoinPath(h.BatchesPath(r.StreamRef), r.BatchID)
}

func (h Hierarchy) YearsPath(r BatchRef) string {
	return database.JoinPath(h.BatchPath(r), collYears)
}

func (h Hierarchy) YearPath(r YearRef) string {
	return database.JoinPath(h.YearsPath(r.BatchRef), r.YearID)
}

func (h Hierarchy) SemestersPath(r YearRef) string {
	return database.JoinPath(h.YearPath(r), collSemesters)
}

func (h Hierarchy) SemesterPath(r SemesterRef) string {
	return database.JoinPath(h.SemestersPath(r.YearRef), r.SemesterID)
}

func (h Hierarchy) SectionsPath(r SemesterRef) string {
	return database.JoinPath(h.SemesterPath(r), collSections)
}

func (h Hierarchy) SectionPath(r SectionRef) string {
	return database.JoinPath(h.SectionsPath(r.SemesterRef), r.SectionID)
}

// UserPath is the role record of a user; role records are not tied to a college
func (h Hierarchy) UserPath(uid string) string {
	return database.JoinPath(collUsers, uid)
}

// decode copies document data into out through its json tags
func decode(doc *database.Document, out interface{}) error {
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// encode turns a model into document data through its json tags, dropping the id
func encode(in interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	data := map[string]interface{}{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	delete(data, "id")
	return data, nil
}
