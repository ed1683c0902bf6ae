// Package analysis implements the built-in expression evaluation tool. It
// evaluates arithmetic in-process so the runtime stays deterministic and
// offline.
package analysis

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/viant/warden/model/types"
)

// Name is the tool service name.
const Name = "analysis"

// Input holds the expression to evaluate.
type Input struct {
	Expression string `json:"expression"`
}

// Output holds the evaluation result.
type Output struct {
	Result float64 `json:"result"`
}

// Service evaluates arithmetic expressions.
type Service struct{}

// New creates an analysis service.
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
			Name:        "run",
			Description: "evaluate an arithmetic expression",
			Input:       reflect.TypeOf(&Input{}),
			Output:      reflect.TypeOf(&Output{}),
		},
	}
}

// Method returns the executable for the given method name.
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "run":
		return s.run, nil
	}
	return nil, types.NewMethodNotFoundError(name)
}

func (s *Service) run(_ context.Context, in, out interface{}) error {
	input, ok := in.(*Input)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if strings.TrimSpace(input.Expression) == "" {
		return fmt.Errorf("expression was empty")
	}
	result, err := Evaluate(input.Expression)
	if err != nil {
		return err
	}
	output.Result = result
	return nil
}
