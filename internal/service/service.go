// Package service holds the business rules between the HTTP handlers and
// the storage and execution layers:
//
//	handler → service → repository / executor
//
// Services take and return plain Go values and apperror errors; they know
// nothing about HTTP, so the cobra CLI uses them too.
package service

// Input limits shared by the execution and report services.
const (
	MaxCodeLength       = 100000 // bytes
	MaxStdinLength      = 10000  // bytes
	MaxNameLength       = 50     // characters
	MaxSchoolLength     = 100    // characters
	MaxStudentIDLength  = 30     // characters
	MaxProblemLength    = 5000   // characters
	MaxResultLength     = 100000 // bytes
	DefaultReportsLimit = 20
	MaxReportsLimit     = 100
)
