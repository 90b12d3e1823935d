package model

// DepartmentType classifies a department
type DepartmentType string

const (
	DepartmentAcademic       DepartmentType = "Academic"
	DepartmentNonAcademic    DepartmentType = "Non-Academic"
	DepartmentSupport        DepartmentType = "Support"
	DepartmentInfrastructure DepartmentType = "Infrastructure"
	DepartmentCreative       DepartmentType = "Creative"
)

type Department struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Type DepartmentType `json:"type"`
}

// Designation is a job title that belongs to a department
type Designation struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DepartmentID string `json:"departmentId"`
}
