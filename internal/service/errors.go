package service

import "errors"

// Sentinel errors shared across the workflow services. Handlers map these
// onto HTTP statuses: validation 400, authorization 403, not found 404,
// invalid transition 409.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTeacherNotFound    = errors.New("teacher not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrActivityNotFound   = errors.New("activity not found")
	ErrAllocationNotFound = errors.New("allocation not found")

	ErrNotAuthorized      = errors.New("caller is not permitted to perform this action")
	ErrAccountNotApproved = errors.New("account has not been approved")

	ErrInvalidTransition = errors.New("activity is not in a reviewable state")

	ErrTeacherIDRequired   = errors.New("teacher_id is required")
	ErrCreditsRequired     = errors.New("credits_awarded is required when approving")
	ErrCommentsRequired    = errors.New("comments are required when rejecting")
	ErrStudentAllocated    = errors.New("student is already allocated to another teacher")
	ErrFileRequired        = errors.New("evidence file is required")
	ErrUnsupportedFileType = errors.New("unsupported evidence file type")
)
