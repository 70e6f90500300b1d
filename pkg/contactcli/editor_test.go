package contactcli

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/gatezh/contactform/pkg/models"
)

func TestStripErrorComments(t *testing.T) {
	content := "name: Jane\nmessage: Hi"
	withError := prependErrorComment(content, "email is required")

	if !strings.Contains(withError, "ERROR: email is required") {
		t.Fatalf("error block missing message: %q", withError)
	}
	if got := stripErrorComments(withError); got != content {
		t.Errorf("stripErrorComments = %q, want %q", got, content)
	}
}

func TestPrependErrorComment_Truncates(t *testing.T) {
	block := prependErrorComment("", strings.Repeat("x", 80))
	if !strings.Contains(block, strings.Repeat("x", 52)+"...") {
		t.Errorf("expected truncated message, got %q", block)
	}
}

// scriptedEditor replaces the file contents on each Open call.
func scriptedEditor(t *testing.T, edits ...string) *Editor {
	t.Helper()
	call := 0
	return &Editor{
		Out: io.Discard,
		Open: func(filename string) error {
			if call >= len(edits) {
				t.Fatalf("editor opened %d times, only %d edits scripted", call+1, len(edits))
			}
			defer func() { call++ }()
			if edits[call] == "" {
				return nil // quit without saving
			}
			return os.WriteFile(filename, []byte(edits[call]), 0600)
		},
	}
}

func TestEditLoop_RetriesUntilValid(t *testing.T) {
	valid := "name: Jane\nemail: jane@example.com\nmessage: Hi\n"
	ed := scriptedEditor(t, "name: Jane\nemail: bad\nmessage: Hi\n", valid)

	var attempts int
	got, err := ed.EditLoop(GenerateTemplate(&models.Submission{}), "contact-", func(c string) error {
		attempts++
		_, err := ParseTemplate(c)
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 validation attempts, got %d", attempts)
	}
	if strings.TrimSpace(got) != strings.TrimSpace(valid) {
		t.Errorf("unexpected content %q", got)
	}
}

func TestEditLoop_Cancel(t *testing.T) {
	tests := []struct {
		name  string
		edits []string
	}{
		{"unchanged template", []string{""}},
		{"emptied file", []string{"   \n"}},
		{"quit after error", []string{"name: Jane\nemail: bad\nmessage: Hi\n", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := scriptedEditor(t, tt.edits...)
			_, err := ed.EditLoop(GenerateTemplate(&models.Submission{}), "contact-", func(c string) error {
				_, err := ParseTemplate(c)
				return err
			})
			if !errors.Is(err, ErrEditorCancelled) {
				t.Errorf("expected ErrEditorCancelled, got %v", err)
			}
		})
	}
}
