package iocontext

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestGetIODefaults(t *testing.T) {
	got := GetIO(context.Background())
	if got.Out != os.Stdout || got.ErrOut != os.Stderr || got.In != os.Stdin {
		t.Fatal("expected default streams")
	}
}

func TestWithIO(t *testing.T) {
	streams := &IO{Out: &bytes.Buffer{}, ErrOut: &bytes.Buffer{}, In: strings.NewReader("")}
	if GetIO(WithIO(context.Background(), streams)) != streams {
		t.Fatal("expected injected streams")
	}
	if GetIO(WithIO(context.Background(), nil)).Out != os.Stdout {
		t.Fatal("nil streams should fall back to defaults")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("closed") }

func TestArgOrStdin(t *testing.T) {
	s := &IO{In: strings.NewReader(`{"a":1}`)}

	got, err := s.ArgOrStdin(`[1,2]`)
	if err != nil || string(got) != `[1,2]` {
		t.Fatalf("literal arg: %q %v", got, err)
	}
	got, err = s.ArgOrStdin("-")
	if err != nil || string(got) != `{"a":1}` {
		t.Fatalf("stdin arg: %q %v", got, err)
	}
	if _, err := (&IO{In: failingReader{}}).ArgOrStdin("-"); err == nil {
		t.Fatal("expected read error")
	}
	if _, err := (&IO{}).ArgOrStdin("-"); err == nil {
		t.Fatal("expected error without stdin")
	}
}
