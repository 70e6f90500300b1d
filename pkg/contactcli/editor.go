package contactcli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrEditorCancelled is returned when the user cancels the editor session
var ErrEditorCancelled = errors.New("editor session cancelled")

const (
	errorBlockStart = "# ┌"
	errorBlockEnd   = "# └"
)

// GetEditor returns the user's preferred editor
func GetEditor() string {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}

	for _, editor := range []string{"vim", "vi", "nano", "notepad"} {
		if path, err := exec.LookPath(editor); err == nil {
			return path
		}
	}

	return "vi"
}

// Editor opens files for the user to edit. Tests replace Open.
type Editor struct {
	Open func(filename string) error
	Out  io.Writer
}

// NewEditor returns an Editor that runs GetEditor attached to the terminal.
func NewEditor() *Editor {
	return &Editor{Open: openInEditor, Out: os.Stdout}
}

func openInEditor(filename string) error {
	cmd := exec.Command(GetEditor(), filename)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}
	return nil
}

// CreateTempFile creates a temporary file with the given content
func CreateTempFile(content, prefix, suffix string) (string, func(), error) {
	f, err := os.CreateTemp("", prefix+"*"+suffix)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	filename := f.Name()

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(filename)
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(filename)
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	return filename, func() { os.Remove(filename) }, nil
}

// EditLoop opens content in the editor and calls validate after each save.
// A validation error is written as a comment block at the top of the file
// and the editor is re-opened. An empty file, or one left unchanged since the
// last round, cancels with ErrEditorCancelled.
func (e *Editor) EditLoop(content, prefix string, validate func(string) error) (string, error) {
	filename, cleanup, err := CreateTempFile(content, prefix, ".yaml")
	if err != nil {
		return "", err
	}
	defer cleanup()

	absPath, _ := filepath.Abs(filename)
	fmt.Fprintf(e.Out, "Opening %s in your editor...\n", absPath)
	fmt.Fprintln(e.Out, "(Save and quit to submit, or quit without saving to cancel)")

	if err := e.Open(filename); err != nil {
		return "", err
	}

	previous := content
	for {
		modified, err := os.ReadFile(filename)
		if err != nil {
			return "", fmt.Errorf("failed to read modified file: %w", err)
		}

		current := stripErrorComments(string(modified))
		if strings.TrimSpace(current) == "" || strings.TrimSpace(current) == strings.TrimSpace(previous) {
			return "", ErrEditorCancelled
		}

		verr := validate(current)
		if verr == nil {
			return current, nil
		}

		previous = current
		if err := os.WriteFile(filename, []byte(prependErrorComment(current, verr.Error())), 0600); err != nil {
			return "", fmt.Errorf("failed to update file: %w", err)
		}

		fmt.Fprintf(e.Out, "\nError: %s\n", verr)
		fmt.Fprintln(e.Out, "Re-opening editor to fix the issue... (quit without saving to cancel)")

		if err := e.Open(filename); err != nil {
			return "", err
		}
	}
}

// prependErrorComment adds an error message as a comment block at the top of the content
func prependErrorComment(content, errMsg string) string {
	return fmt.Sprintf("# ┌─────────────────────────────────────────────────────────────────┐\n"+
		"# │ ERROR: %-55s │\n"+
		"# │ Fix the issue below and save the file to retry.               │\n"+
		"# └─────────────────────────────────────────────────────────────────┘\n\n",
		truncate(errMsg, 55)) + content
}

// stripErrorComments removes previously added error comment blocks
func stripErrorComments(content string) string {
	var kept []string
	inBlock, skipBlank := false, false

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, errorBlockStart):
			inBlock = true
			continue
		case inBlock && strings.HasPrefix(line, errorBlockEnd):
			inBlock, skipBlank = false, true
			continue
		case inBlock:
			continue
		case skipBlank:
			skipBlank = false
			if line == "" {
				continue
			}
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}
