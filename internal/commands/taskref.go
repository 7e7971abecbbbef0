package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskID parses the task ID from the first positional argument.
//
// Accepted forms are "12" and "#12". Anything else, including zero and
// negative numbers, is an invalid task reference.
func ParseTaskID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskRefRequired
	}
	ref := strings.TrimPrefix(args[0], "#")
	if !isAllDigits(ref) {
		return 0, fmt.Errorf("invalid task reference: %s", args[0])
	}
	id, err := strconv.Atoi(ref)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid task reference: %s", args[0])
	}
	return id, nil
}

// parseUserID parses a user ID flag value. An empty value means unset.
func parseUserID(v string) (*int, error) {
	if v == "" {
		return nil, nil
	}
	if !isAllDigits(v) {
		return nil, fmt.Errorf("invalid user id: %s", v)
	}
	id, err := strconv.Atoi(v)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("invalid user id: %s", v)
	}
	return &id, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
