package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if out.String() != "Name?\n> " {
		t.Fatalf("prompt %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	if err == nil {
		t.Fatal("expected EOF")
	}
}

func TestGetMultiline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "double enter", input: "a\nb\n\n\n", want: "a\nb"},
		{name: "windows newlines", input: "a\r\nb\r\n\r\n", want: "a\nb"},
		{name: "eof without blank line", input: "a\nb", want: "a\nb"},
		{name: "immediate blank line", input: "\n", want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetMultiline(rdr(tc.input), "Enter text", &out)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func stubTerminal(t *testing.T, tty bool) {
	t.Helper()
	orig := isTerminal
	isTerminal = func(int) bool { return tty }
	t.Cleanup(func() { isTerminal = orig })
}

func TestPromptConfirmer(t *testing.T) {
	ctx := context.Background()

	t.Run("yes", func(t *testing.T) {
		stubTerminal(t, true)
		var out bytes.Buffer
		c := promptConfirmer{reader: rdr("Y\n"), w: &out}
		assert.True(t, c.Confirm(ctx, "Delete Acme?"))
		assert.Contains(t, out.String(), "Delete Acme? [y/N]")
	})

	t.Run("anything else declines", func(t *testing.T) {
		stubTerminal(t, true)
		c := promptConfirmer{reader: rdr("sure\n"), w: &bytes.Buffer{}}
		assert.False(t, c.Confirm(ctx, "Delete?"))
	})

	t.Run("no terminal declines without reading", func(t *testing.T) {
		stubTerminal(t, false)
		r := rdr("y\n")
		c := promptConfirmer{reader: r, w: &bytes.Buffer{}}
		assert.False(t, c.Confirm(ctx, "Delete?"))
		line, _ := r.ReadString('\n')
		assert.Equal(t, "y\n", line, "input left for the REPL")
	})
}
