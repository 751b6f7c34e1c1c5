package exception

import "errors"

var (
	ErrIncompleteAssessment = errors.New("risk: incomplete assessment")
	ErrInvalidAnswer        = errors.New("risk: invalid answer")
)
