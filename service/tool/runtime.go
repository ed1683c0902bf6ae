package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/viant/structology/conv"
	"github.com/viant/warden/model/command"
	"github.com/viant/warden/service/audit"
)

// Runtime invokes registered tool services. Every execution is deterministic
// and offline: the runtime only dispatches to in-process services and never
// reaches the network or the host shell.
type Runtime struct {
	registry  *Registry
	auditSink audit.Sink
	converter *conv.Converter
}

// RuntimeOption customises the runtime.
type RuntimeOption func(*Runtime)

// WithAuditSink attaches an audit sink recording every tool invocation.
func WithAuditSink(sink audit.Sink) RuntimeOption {
	return func(r *Runtime) { r.auditSink = sink }
}

// NewRuntime creates a tool runtime backed by the supplied registry.
func NewRuntime(registry *Registry, options ...RuntimeOption) *Runtime {
	convOptions := conv.DefaultOptions()
	convOptions.ClonePointerData = true
	convOptions.IgnoreUnmapped = true
	convOptions.AccessUnexported = true
	ret := &Runtime{
		registry:  registry,
		converter: conv.NewConverter(convOptions),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Execute runs the action identified by "service.method" with the supplied
// parameters on behalf of agentID. The returned map is the canonical tool
// result envelope. Every attempt is audited, failed ones included.
func (r *Runtime) Execute(ctx context.Context, agentID, action string, params map[string]interface{}) (map[string]interface{}, error) {
	data, err := r.execute(ctx, action, params)
	event := audit.NewEvent(audit.EventTypeToolRuntime, action, agentID, command.ExecutionIDFromContext(ctx))
	if err != nil {
		event.Data = map[string]interface{}{"error": err.Error()}
		audit.TryAppend(ctx, r.auditSink, event)
		return nil, err
	}
	event.Data = data
	audit.TryAppend(ctx, r.auditSink, event)

	return map[string]interface{}{
		"ok":              true,
		"execution_state": string(command.StateCompleted),
		"action":          action,
		"agent_id":        agentID,
		"data":            data,
	}, nil
}

func (r *Runtime) execute(ctx context.Context, action string, params map[string]interface{}) (map[string]interface{}, error) {
	serviceName, methodName, err := splitAction(action)
	if err != nil {
		return nil, err
	}
	service := r.registry.Lookup(serviceName)
	if service == nil {
		return nil, fmt.Errorf("tool %v not implemented", action)
	}
	signature := service.Methods().Lookup(methodName)
	if signature == nil {
		return nil, fmt.Errorf("tool %v not implemented", action)
	}
	executable, err := service.Method(methodName)
	if err != nil {
		return nil, err
	}

	input := newInstancePtr(signature.Input)
	if len(params) > 0 {
		if err = r.converter.Convert(params, input); err != nil {
			return nil, fmt.Errorf("invalid input for %v: %w", action, err)
		}
	}
	output := newInstancePtr(signature.Output)
	if err = executable(ctx, input, output); err != nil {
		return nil, err
	}
	data, err := asMap(output)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %v output: %w", action, err)
	}
	return data, nil
}

func splitAction(action string) (string, string, error) {
	index := strings.LastIndex(action, ".")
	if index <= 0 || index == len(action)-1 {
		return "", "", fmt.Errorf("invalid action: %v", action)
	}
	return action[:index], action[index+1:], nil
}

func newInstancePtr(aType reflect.Type) interface{} {
	if aType == nil {
		return &map[string]interface{}{}
	}
	if aType.Kind() == reflect.Ptr {
		aType = aType.Elem()
	}
	return reflect.New(aType).Interface()
}

func asMap(value interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var ret map[string]interface{}
	if err = json.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}
