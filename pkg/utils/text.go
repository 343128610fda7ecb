package utils

import (
	"context"
	"strings"
	"unicode/utf8"

	"golang-market-oracle/pkg/logger"
)

// CleanToValidUTF8 strips invalid UTF-8 sequences and NUL bytes so the text
// can be stored in postgres text columns.
func CleanToValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return strings.ReplaceAll(s, "\x00", "")
	}
	return strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", "")
}

// ContainsString reports whether target is present in the list.
func ContainsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}

// ShouldContinue reports whether the context is still alive, logging when it
// is not so loops can bail out quietly.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		log.Info("Context canceled, stopping work")
		return false
	default:
		return true
	}
}
