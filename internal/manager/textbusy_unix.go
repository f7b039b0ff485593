//go:build unix

package manager

import (
	"errors"
	"strings"
	"syscall"
)

func isTextBusy(err error) bool {
	return errors.Is(err, syscall.ETXTBSY) || strings.Contains(strings.ToLower(err.Error()), "text file busy")
}
