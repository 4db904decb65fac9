package task

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

const fileMode = 0o600

// Read parses a markdown task file. The description is the body below the
// frontmatter.
func Read(path string) (*Task, error) {
	data, err := os.ReadFile(path) //nolint:gosec // task path from trusted source
	if err != nil {
		return nil, fmt.Errorf("reading task file: %w", err)
	}
	t, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}

// Write serializes a task to a markdown file with YAML frontmatter.
func Write(path string, t *Task) error {
	data, err := Marshal(t)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, fileMode)
}

// Marshal renders t as YAML frontmatter followed by its description.
func Marshal(t *Task) ([]byte, error) {
	fm, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshaling frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n")
	if t.Description != "" {
		buf.WriteString("\n")
		buf.WriteString(t.Description)
		if !strings.HasSuffix(t.Description, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// Unmarshal parses the output of Marshal.
func Unmarshal(data []byte) (*Task, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	var t Task
	if err := yaml.Unmarshal(fm, &t); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}
	t.Description = strings.TrimRight(body, "\n")
	return &t, nil
}

// splitFrontmatter splits a markdown file into YAML frontmatter and body.
// The file must start with "---\n".
func splitFrontmatter(data []byte) ([]byte, string, error) {
	content := string(data)

	if !strings.HasPrefix(content, "---\n") {
		return nil, "", errors.New("file does not start with YAML frontmatter (---)")
	}

	rest := content[4:]
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		if !strings.HasSuffix(rest, "\n---") {
			return nil, "", errors.New("unclosed frontmatter (missing closing ---)")
		}
		idx = len(rest) - len("---")
	}

	fm := rest[:idx]
	body := ""
	closingEnd := idx + len("\n---\n")
	if closingEnd < len(rest) {
		body = strings.TrimLeft(rest[closingEnd:], "\n")
	}

	return []byte(fm), body, nil
}
