package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gatezh/contactform/pkg/contactcli"
)

// noEditor fails the test if the editor is opened.
func noEditor(t *testing.T) *contactcli.Editor {
	return &contactcli.Editor{Open: func(string) error {
		t.Fatal("editor should not be opened")
		return nil
	}}
}

func TestSubmissionInput_Read(t *testing.T) {
	t.Run("flags", func(t *testing.T) {
		in := submissionInput{name: "  Jane ", email: "jane@example.com", message: "Hi"}
		sub, err := in.read(noEditor(t))
		if err != nil {
			t.Fatal(err)
		}
		if sub.Name != "Jane" {
			t.Errorf("expected trimmed name, got %q", sub.Name)
		}
	})

	t.Run("invalid flags", func(t *testing.T) {
		in := submissionInput{name: "Jane", email: "nope", message: "Hi"}
		_, err := in.read(noEditor(t))
		if err == nil || !strings.Contains(err.Error(), "email must be a valid email address") {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("file with token flag", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "message.yaml")
		os.WriteFile(path, []byte("name: Jane\nemail: jane@example.com\nmessage: Hi\n"), 0600)

		in := submissionInput{file: path, captchaToken: "tok"}
		sub, err := in.read(noEditor(t))
		if err != nil {
			t.Fatal(err)
		}
		if sub.CaptchaToken != "tok" {
			t.Errorf("expected captcha token from flag, got %q", sub.CaptchaToken)
		}
	})

	t.Run("editor cancelled", func(t *testing.T) {
		in := submissionInput{name: "Jane"}
		ed := &contactcli.Editor{Open: func(string) error { return nil }, Out: os.Stderr}
		_, err := in.read(ed)
		if !errors.Is(err, contactcli.ErrEditorCancelled) {
			t.Errorf("expected ErrEditorCancelled, got %v", err)
		}
	})
}

func TestConfirm(t *testing.T) {
	tests := map[string]bool{"\n": true, "y\n": true, "YES\n": true, "n\n": false, "nope\n": false}
	for input, want := range tests {
		if got := confirm(strings.NewReader(input), ""); got != want {
			t.Errorf("confirm(%q) = %v, want %v", input, got, want)
		}
	}
}
