package model

// Degree is an academic program, e.g. B.Tech
type Degree struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Duration    int    `json:"duration"`    // Duration in years
	StreamCount int    `json:"streamCount"` // Recounted from stream children on read
}

// Stream is a specialization of a degree, e.g. CSE
type Stream struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Batch is one intake of a stream
type Batch struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StartYear     int    `json:"startYear"`
	EndYear       int    `json:"endYear"`
	PromotedYears int    `json:"promotedYears"` // Manual promotion counter
	StartMonth    int    `json:"startMonth"`    // 1-12, month the academic year starts
	CurrentYear   string `json:"currentYear,omitempty"`
}

// Year is one program year of a batch
type Year struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number int    `json:"number"`
}

// Semester belongs to a year; numbering runs across the whole batch
type Semester struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number int    `json:"number"`
}

// Section is a class group of a semester
type Section struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SectionDetail is a section with the number of records in each leaf collection
type SectionDetail struct {
	Section
	Collections map[string]int `json:"collections"`
}

// StreamNode is a stream with its batches in the structure overview
type StreamNode struct {
	Stream
	Batches []Batch `json:"batches"`
}

// DegreeNode is a degree with its streams in the structure overview
type DegreeNode struct {
	Degree
	Streams []StreamNode `json:"streams"`
}

// StructureTree is the degree -> stream -> batch overview of a college
type StructureTree struct {
	CollegeID   string       `json:"collegeId"`
	CollegeName string       `json:"collegeName"`
	Degrees     []DegreeNode `json:"degrees"`
	GeneratedAt int64        `json:"generatedAt"`
}
