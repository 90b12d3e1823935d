package model

type EmployeeStatus string

const (
	EmployeeActive     EmployeeStatus = "Active"
	EmployeeOnLeave    EmployeeStatus = "On-Leave"
	EmployeeResigned   EmployeeStatus = "Resigned"
	EmployeeTerminated EmployeeStatus = "Terminated"
)

type SalaryType string

const (
	SalaryFixed     SalaryType = "Fixed"
	SalaryHourly    SalaryType = "Hourly"
	SalaryIncentive SalaryType = "Incentive-Based"
)

// Employee is a staff record of the college
type Employee struct {
	ID            string         `json:"id"`
	FullName      string         `json:"fullName"`
	EmployeeID    string         `json:"employeeId"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	DepartmentID  string         `json:"departmentId"`
	DesignationID string         `json:"designationId"`
	DateOfJoining int64          `json:"dateOfJoining"` // Unix milliseconds
	Status        EmployeeStatus `json:"status"`
	SalaryType    SalaryType     `json:"salaryType"`
	SalaryAmount  float64        `json:"salaryAmount"`
}

// ClassAssignment points a teacher at one section of the hierarchy
type ClassAssignment struct {
	DegreeID   string `json:"degreeId"`
	StreamID   string `json:"streamId"`
	BatchID    string `json:"batchId"`
	YearID     string `json:"yearId"`
	SemesterID string `json:"semesterId"`
	SectionID  string `json:"sectionId"`
	Subject    string `json:"subject"`
}

// Teacher is keyed by the teacher's auth uid
type Teacher struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	EmployeeID      string            `json:"employeeId"`
	Phone           string            `json:"phone"`
	Department      string            `json:"department"`
	Specialization  string            `json:"specialization"`
	JoiningDate     int64             `json:"joiningDate"` // Unix milliseconds
	AssignedClasses []ClassAssignment `json:"assignedClasses"`
	Role            Role              `json:"role"`
}
