package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestReadLine(t *testing.T) {
	var out bytes.Buffer
	got, err := ReadLine(rdr("  hello world \n"), &out, "Name?")
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestReadLine_EOF(t *testing.T) {
	var out bytes.Buffer
	got, err := ReadLine(rdr("lastline"), &out, "Name?")
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = ReadLine(rdr(""), &out, "Name?")
	assert.Error(t, err)
}

func TestReadSecret(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	pw, err := ReadSecret(&out, "Password")
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), pw)
	assert.Equal(t, "Password: \n", out.String())

	readPassword = func(int) ([]byte, error) { return nil, errors.New("boom") }
	_, err = ReadSecret(&out, "Password")
	assert.Error(t, err)
}

func TestReadCode_GivesUp(t *testing.T) {
	var out bytes.Buffer
	_, err := ReadCode(rdr("1\n2\n3\n999999\n"), &out, "Code")
	assert.ErrorIs(t, err, ErrBadCode)
	assert.Equal(t, codeAttempts, strings.Count(out.String(), "six digits"))
}

func TestReadCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "first try", input: "123456\n", want: "123456"},
		{name: "retry after typo", input: "12345\nabcdef\n 000042 \n", want: "000042"},
		{name: "gives up", input: "1\n2\n3\n999999\n", wantErr: true},
		{name: "input ends", input: "12\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := ReadCode(rdr(tt.input), &out, "Code")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
