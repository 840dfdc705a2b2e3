package whitelist

import (
	"bufio"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

const (
	startAnchor = "^"
	endAnchor   = "$"

	// EmptyPattern matches only the empty string. It is the fallback when no
	// usable rules exist, so the classifier always has a valid expression to
	// compile while still rejecting every real metric name.
	EmptyPattern = startAnchor + endAnchor
)

// AllowUnsafeKey is the configuration key referenced in warnings when an
// unsafe rule is disabled.
const AllowUnsafeKey = "allow_unsafe_patterns"

// unsafePattern detects rules that pass everything through: a bare .* or .+,
// or such a wildcard next to whitespace.
var unsafePattern = regexp.MustCompile(`^\.[*+]?\s.*$|^.*?\s\.[*+]|^\.[*+]$`)

// ErrUnsafePattern marks a rule rejected by the pass-through safety policy.
var ErrUnsafePattern = errors.New("unsafe pass-through rule")

// LoadPatterns reads the whitelist file at path and returns the anchor-wrapped
// rules that validated, in file order. All failures degrade to the
// EmptyPattern fallback: a missing file is created empty, and read errors or
// invalid lines are logged as warnings. It never returns an error.
func LoadPatterns(logger *slog.Logger, path string, allowUnsafe bool) []string {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			createWhitelistFile(logger, path)
		} else {
			logger.Warn("could not open whitelist file", "path", path, "error", err)
		}
		return []string{EmptyPattern}
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		wrapped, err := ValidatePattern(line, allowUnsafe)
		if err != nil {
			if errors.Is(err, ErrUnsafePattern) {
				logger.Warn("unsafe whitelist rule disabled",
					"rule", line,
					"hint", "revisit the rule or change the "+AllowUnsafeKey+" option in the plugin configuration")
			} else {
				logger.Warn("invalid whitelist rule", "rule", line, "error", err)
			}
			continue
		}
		patterns = append(patterns, wrapped)
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("could not read whitelist file", "path", path, "error", err)
		return []string{EmptyPattern}
	}

	if len(patterns) == 0 {
		return []string{EmptyPattern}
	}
	return patterns
}

// ValidatePattern checks a single stripped whitelist line and returns it
// anchor-wrapped. The safety policy runs before the syntax check so that an
// unsafe rule is reported as a policy rejection, not a parse failure.
func ValidatePattern(line string, allowUnsafe bool) (string, error) {
	if !allowUnsafe && unsafePattern.MatchString(line) {
		return "", ErrUnsafePattern
	}
	wrapped := startAnchor + line + endAnchor
	if _, err := regexp.Compile(wrapped); err != nil {
		return "", err
	}
	return wrapped, nil
}

// createWhitelistFile creates an empty whitelist file so operators have a
// place to add rules. An existing file is never overwritten, even if empty.
func createWhitelistFile(logger *slog.Logger, path string) {
	if _, err := os.Stat(path); err == nil {
		return
	}
	logger.Warn("whitelist file not found, creating new file", "path", path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		if !errors.Is(err, fs.ErrExist) {
			logger.Warn("could not create whitelist file", "path", path, "error", err)
		}
		return
	}
	f.Close()
}
