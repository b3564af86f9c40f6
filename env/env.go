// this package implements a simple .env parser. Each non-blank line is KEY=VALUE; a # starts a comment that runs to
// the end of the line. It does not account for multi-line values, quoting, or the following characters in the key or
// value: quotation mark ("), equals sign (=), and whitespace inside a value.
package env

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	ErrMissingKey        = errors.New("missing key")
	ErrMissingValue      = errors.New("missing value")
	ErrMissingAssignment = errors.New("expected key=value")
	ErrExtraAssignment   = errors.New("encountered unexpected assignment operator")
	ErrUnexpectedSpace   = errors.New("unexpected whitespace")
	ErrQuotedValue       = errors.New("quotation marks are not supported")
)

// A parse failure and the 1-based line it happened on.
type SyntaxError struct {
	Line int
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

func parseLine(line string) (key, value string, ok bool, err error) {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false, nil
	}
	if strings.ContainsRune(line, '"') {
		return "", "", false, ErrQuotedValue
	}

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false, ErrMissingAssignment
	}
	if strings.ContainsRune(value, '=') {
		return "", "", false, ErrExtraAssignment
	}
	if key == "" {
		return "", "", false, ErrMissingKey
	}
	if value == "" {
		return "", "", false, ErrMissingValue
	}
	if strings.ContainsAny(key, " \t") || strings.ContainsAny(value, " \t") {
		return "", "", false, ErrUnexpectedSpace
	}
	return key, value, true, nil
}

// Parses .env formatted data. Later assignments to the same key win.
func Parse(r io.Reader) (map[string]string, error) {
	envMap := make(map[string]string)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		key, value, ok, err := parseLine(scanner.Text())
		if err != nil {
			return envMap, &SyntaxError{Line: lineNo, Err: err}
		}
		if ok {
			envMap[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return envMap, err
	}
	return envMap, nil
}

// Processes a .env file from a given filename.
func ProcessEnv(filename string) (map[string]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return map[string]string{}, err
	}
	defer f.Close()
	return Parse(f)
}
