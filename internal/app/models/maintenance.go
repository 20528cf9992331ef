package models

// ValidationStatistics are the counters reported with an integrity check.
type ValidationStatistics struct {
	TotalStudents     int `json:"totalStudents"`
	CompletedStudents int `json:"completedStudents"`
	StudentsWithUj3   int `json:"studentsWithUj3"`
	StudentsWithSup   int `json:"studentsWithSup"`
	StudentsWithShp   int `json:"studentsWithShp"`
	StudentsWithUk    int `json:"studentsWithUk"`
	Duplicates        int `json:"duplicates"`
	InvalidDates      int `json:"invalidDates"`
	OrphanedRecords   int `json:"orphanedRecords"`
}

// ValidationDetails lists the individual findings behind the summary issues.
type ValidationDetails struct {
	DuplicateNIMs []string `json:"duplicateNims"`
	InvalidDates  []string `json:"invalidDates"`
	OrphanedData  []string `json:"orphanedData"`
}

// ValidationReport is the result of an integrity check. It never carries an error;
// a failed read is reported as an issue.
type ValidationReport struct {
	Valid      bool                 `json:"isValid"`
	Issues     []string             `json:"issues"`
	Statistics ValidationStatistics `json:"statistics"`
	Details    ValidationDetails    `json:"details"`
}

// RepairResult reports which issues an automatic repair handled.
type RepairResult struct {
	Success  bool     `json:"success"`
	Repaired []string `json:"repaired"`
	Failed   []string `json:"failed"`
	Message  string   `json:"message"`
}

// OptimizeResult lists the maintenance actions performed.
type OptimizeResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Actions []string `json:"actions"`
}
