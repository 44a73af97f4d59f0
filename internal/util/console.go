package util

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

var Red = color.New(color.FgRed)
var Yellow = color.New(color.FgYellow)
var Cyan = color.New(color.FgCyan)
var CyanBold = color.New(color.FgCyan).Add(color.Bold)
var Green = color.New(color.FgGreen)
var GreenBold = color.New(color.FgGreen).Add(color.Bold)

// Mask hides all but the first character of a secret for console output
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(secret)
	if r == utf8.RuneError {
		return "****"
	}
	return string(r) + "****"
}

// password=... pairs in keyword/value and query-string DSNs
var dsnPassword = regexp.MustCompile(`(?i)(password\s*=\s*)('(?:[^'\\]|\\.)*'|[^\s;&]+)`)

// MaskDSN hides the password in a connection string for console output.
// URL userinfo and password=... pairs are masked; anything else is returned
// unchanged.
func MaskDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err == nil {
			dsn = u.Redacted()
		}
	}
	return dsnPassword.ReplaceAllString(dsn, "${1}****")
}
