// Package docs implements the built-in document comparison tool.
package docs

import (
	"context"
	"reflect"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/viant/warden/model/types"
)

// Name is the tool service name.
const Name = "docs"

// Input holds the documents to compare.
type Input struct {
	Source  string `json:"source"`
	Target  string `json:"target"`
	Name    string `json:"name,omitempty"`
	Context int    `json:"context,omitempty"`
}

// Output holds the unified diff with its line statistics.
type Output struct {
	Patch   string `json:"patch"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Changed bool   `json:"changed"`
}

// Service compares documents.
type Service struct{}

// New creates a docs service.
func New() *Service {
	return &Service{}
}

// Name returns the service name.
func (s *Service) Name() string {
	return Name
}

// Methods returns the service method signatures.
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:        "diff",
			Description: "produce a unified diff of two documents",
			Input:       reflect.TypeOf(&Input{}),
			Output:      reflect.TypeOf(&Output{}),
		},
	}
}

// Method returns the executable for the given method name.
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "diff":
		return s.diff, nil
	}
	return nil, types.NewMethodNotFoundError(name)
}

func (s *Service) diff(_ context.Context, in, out interface{}) error {
	input, ok := in.(*Input)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if input.Source == input.Target {
		return nil
	}
	contextLines := input.Context
	if contextLines <= 0 {
		contextLines = 3
	}
	name := input.Name
	if name == "" {
		name = "document"
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(input.Source),
		B:        difflib.SplitLines(input.Target),
		FromFile: name + " (original)",
		ToFile:   name + " (modified)",
		Context:  contextLines,
	}
	patch, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return err
	}
	output.Patch = patch
	output.Changed = true
	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			output.Added++
		case strings.HasPrefix(line, "-"):
			output.Removed++
		}
	}
	return nil
}
