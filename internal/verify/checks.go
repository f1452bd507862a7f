package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/harrison/actuator/internal/models"
)

// FileContains passes when Path exists and contains every marker.
type FileContains struct {
	Path    string
	Markers []string
}

// Verify implements Check.
func (c FileContains) Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Path, err)
	}
	content := string(data)
	for _, marker := range c.Markers {
		if !strings.Contains(content, marker) {
			return fmt.Errorf("%s is missing marker %q", c.Path, marker)
		}
	}
	return nil
}

// FileExists passes when every path exists.
type FileExists struct {
	Paths []string
}

// Verify implements Check.
func (c FileExists) Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error {
	for _, p := range c.Paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("expected %s to exist: %w", p, err)
		}
	}
	return nil
}

// MarkdownHeadings passes when the markdown document at Path contains a
// heading for each entry in Headings, at any level.
type MarkdownHeadings struct {
	Path     string
	Headings []string
}

// Verify implements Check.
func (c MarkdownHeadings) Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error {
	content, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Path, err)
	}

	found, err := headings(content)
	if err != nil {
		return fmt.Errorf("parse %s: %w", c.Path, err)
	}

	for _, want := range c.Headings {
		if !found[want] {
			return fmt.Errorf("%s is missing heading %q", c.Path, want)
		}
	}
	return nil
}

func headings(content []byte) (map[string]bool, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(content))

	found := make(map[string]bool)
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if heading, ok := n.(*ast.Heading); ok {
			found[strings.TrimSpace(headingText(heading, content))] = true
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return found, err
}

func headingText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
		}
	}
	return buf.String()
}

// JSONKeys passes when Path holds a JSON object with every key present at
// the top level.
type JSONKeys struct {
	Path string
	Keys []string
}

// Verify implements Check.
func (c JSONKeys) Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Path, err)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%s is not a JSON object: %w", c.Path, err)
	}
	for _, key := range c.Keys {
		if _, ok := obj[key]; !ok {
			return fmt.Errorf("%s is missing key %q", c.Path, key)
		}
	}
	return nil
}

// All passes when every check passes, stopping at the first failure.
type All []Check

// Verify implements Check.
func (a All) Verify(ctx context.Context, action models.Action, result *models.ExecutionResult) error {
	for _, c := range a {
		if err := c.Verify(ctx, action, result); err != nil {
			return err
		}
	}
	return nil
}
