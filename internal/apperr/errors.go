// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package apperr defines the error categories a conversion can fail with.
// Callers wrap the underlying cause with one of these sentinels so that
// errors.Is matches both the category and the cause.
package apperr

import "errors"

var (
	// ErrStorage reports that the source database could not be opened or read.
	ErrStorage = errors.New("storage error")

	// ErrParse reports a node whose rich-text payload is not well-formed.
	ErrParse = errors.New("parse error")

	// ErrIO reports a failure creating directories or writing output files.
	ErrIO = errors.New("io error")

	// ErrStructure reports parent/child links or image owners that do not
	// form a valid tree.
	ErrStructure = errors.New("structure error")

	// ErrConfig reports invalid conversion settings.
	ErrConfig = errors.New("config error")
)
