package tool

import (
	"reflect"
	"sync"

	"github.com/viant/warden/model/types"
	"github.com/viant/x"
)

// Registry holds the tool services exposed to the runtime together with the
// Go types of their inputs and outputs.
type Registry struct {
	types    *x.Registry
	services map[string]types.Service
	mux      sync.RWMutex
}

// Types returns the data type registry.
func (r *Registry) Types() *x.Registry {
	return r.types
}

// Lookup returns a service by name.
func (r *Registry) Lookup(name string) types.Service {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.services[name]
}

// Register registers a service and the data types of its methods.
func (r *Registry) Register(service types.Service) {
	if service == nil {
		return
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	for _, signature := range service.Methods() {
		for _, rType := range []reflect.Type{signature.Input, signature.Output} {
			if rType == nil {
				continue
			}
			if rType.Kind() == reflect.Ptr {
				rType = rType.Elem()
			}
			r.types.Register(x.NewType(rType))
		}
	}
	r.services[service.Name()] = service
}

// Services returns the registered service names.
func (r *Registry) Services() []string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	var ret []string
	for name := range r.services {
		ret = append(ret, name)
	}
	return ret
}

// NewRegistry creates a tool service registry.
func NewRegistry(goTypes ...*x.Type) *Registry {
	ret := &Registry{
		types:    x.NewRegistry(),
		services: make(map[string]types.Service),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
