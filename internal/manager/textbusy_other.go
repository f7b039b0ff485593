//go:build !unix

package manager

import "strings"

func isTextBusy(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "text file busy")
}
