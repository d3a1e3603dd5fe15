package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectQuery          = "class.query.v1"
	SubjectBootstrap      = "class.bootstrap"
	SubjectCompilingEvent = "class.compiling"
	SubjectCompiledEvent  = "class.compiled"
	SubjectSaveDbEvent    = "class.db.saved"
)

// safeSegment replaces dots with underscores so a fully-qualified class
// name can be embedded as a single subject token.
func safeSegment(s string) string {
	return strings.ReplaceAll(s, ".", "_")
}

// BuildCompilingSubject builds the granular subject for a compilingClass event.
func BuildCompilingSubject(className string) string {
	return fmt.Sprintf("class.compiling.%s", safeSegment(className))
}

// BuildCompiledSubject builds the granular subject for a compiledClass event.
func BuildCompiledSubject(className string) string {
	return fmt.Sprintf("class.compiled.%s", safeSegment(className))
}

// BuildClassQuerySubject builds the COMMS subject used to query a single
// library's classes (e.g. by an IDE/language-server client).
func BuildClassQuerySubject(namespace string) string {
	return fmt.Sprintf("class.query.%s.v1", safeSegment(namespace))
}
