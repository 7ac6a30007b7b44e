// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"errors"
	"strconv"
	"strings"
)

// ErrBadID is returned by ParseID for values that are not base-10 integers
// in the int64 range.
var ErrBadID = errors.New("id must be an integer")

// ParseID converts a path segment to an int64 identifier. Surrounding
// whitespace is not accepted; signs are, so "-1" parses and simply never
// matches a stored id.
//
// Example:
//
//	id, err := utils.ParseID("42")  // 42, nil
//	_, err = utils.ParseID("abc")   // 0, ErrBadID
//	_, err = utils.ParseID("")      // 0, ErrBadID
func ParseID(s string) (int64, error) {
	if s == "" || strings.TrimSpace(s) != s {
		return 0, ErrBadID
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrBadID
	}
	return n, nil
}
