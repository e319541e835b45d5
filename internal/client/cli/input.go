package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// codeAttempts bounds how often ReadCode re-asks for a malformed code.
const codeAttempts = 3

// ErrBadCode is returned by ReadCode once every attempt was malformed.
var ErrBadCode = errors.New("expected a 6-digit numeric code")

var readPassword = term.ReadPassword

// ReadLine shows prompt on its own line followed by "> " and returns the
// trimmed answer. A final line without a newline still counts.
func ReadLine(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n> ", prompt); err != nil {
		return "", err
	}

	line, err := r.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && line != "":
	default:
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadSecret reads from the terminal without echo. Callers wipe the result.
func ReadSecret(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprintf(w, "%s: ", prompt); err != nil {
		return nil, err
	}
	secret, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// ReadCode asks for a login code until it gets six digits.
func ReadCode(r *bufio.Reader, w io.Writer, prompt string) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := ReadLine(r, w, prompt)
		if err != nil {
			return "", err
		}
		if isCode(code) {
			return code, nil
		}
		fmt.Fprintln(w, "The code is six digits, e.g. 042137.")
	}
	return "", ErrBadCode
}

func isCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
