package factory

import (
	"context"
	"fmt"

	"github.com/crmarques/restresource/action"
	"github.com/crmarques/restresource/params"
	"github.com/crmarques/restresource/resource"
	"github.com/crmarques/restresource/transport"
)

// Invoke runs the named action and returns the caller-visible target at once:
// a *resource.Instance for object actions, a *resource.Collection for array
// actions. Cache hits are settled before Invoke returns; misses settle when
// the transport answers.
//
// Invalid member paths, parameter names and unknown actions are returned as
// errors before any I/O. Transport and response-shape failures are reported
// through call.OnError and the target's promise only.
func (r *Resource) Invoke(ctx context.Context, name string, call action.Call) (resource.Target, error) {
	ex, err := r.prepare(name, call, nil)
	if err != nil {
		return nil, err
	}
	ex.run(ctx)
	return ex.target(), nil
}

// InvokeArgs resolves up to four positional arguments the way
// action.Resolve does and invokes the action.
func (r *Resource) InvokeArgs(ctx context.Context, name string, args ...any) (resource.Target, error) {
	descriptor, err := r.descriptor(name)
	if err != nil {
		return nil, err
	}
	call, err := action.Resolve(descriptor.HasBody(), args...)
	if err != nil {
		return nil, err
	}
	return r.Invoke(ctx, name, call)
}

// InvokeOn runs the named action with instance as its data. The instance is
// updated in place and the returned promise settles with the interceptor
// result. call.Data is ignored.
func (r *Resource) InvokeOn(ctx context.Context, instance *resource.Instance, name string, call action.Call) (*resource.Promise, error) {
	if instance == nil {
		return nil, validationError("instance is required", nil)
	}
	ex, err := r.prepare(name, call, instance)
	if err != nil {
		return nil, err
	}
	ex.run(ctx)
	return ex.promise, nil
}

// InvokeOnArgs accepts (params?, onSuccess?, onError?) the way
// action.ResolveInstance does.
func (r *Resource) InvokeOnArgs(ctx context.Context, instance *resource.Instance, name string, args ...any) (*resource.Promise, error) {
	call, err := action.ResolveInstance(args...)
	if err != nil {
		return nil, err
	}
	return r.InvokeOn(ctx, instance, name, call)
}

// Instance invokes an object action.
func (r *Resource) Instance(ctx context.Context, name string, call action.Call) (*resource.Instance, error) {
	descriptor, err := r.descriptor(name)
	if err != nil {
		return nil, err
	}
	if descriptor.IsArray {
		return nil, validationError(fmt.Sprintf("action %q returns an array", name), nil)
	}

	target, err := r.Invoke(ctx, name, call)
	if err != nil {
		return nil, err
	}
	return target.(*resource.Instance), nil
}

// Collection invokes an array action.
func (r *Resource) Collection(ctx context.Context, name string, call action.Call) (*resource.Collection, error) {
	descriptor, err := r.descriptor(name)
	if err != nil {
		return nil, err
	}
	if !descriptor.IsArray {
		return nil, validationError(fmt.Sprintf("action %q returns an object", name), nil)
	}

	target, err := r.Invoke(ctx, name, call)
	if err != nil {
		return nil, err
	}
	return target.(*resource.Collection), nil
}

func (r *Resource) Get(ctx context.Context, call action.Call) (*resource.Instance, error) {
	return r.Instance(ctx, action.Get, call)
}

func (r *Resource) Save(ctx context.Context, call action.Call) (*resource.Instance, error) {
	return r.Instance(ctx, action.Save, call)
}

func (r *Resource) Remove(ctx context.Context, call action.Call) (*resource.Instance, error) {
	return r.Instance(ctx, action.Remove, call)
}

func (r *Resource) Delete(ctx context.Context, call action.Call) (*resource.Instance, error) {
	return r.Instance(ctx, action.Delete, call)
}

func (r *Resource) Query(ctx context.Context, call action.Call) (*resource.Collection, error) {
	return r.Collection(ctx, action.Query, call)
}

func (r *Resource) descriptor(name string) (action.Descriptor, error) {
	descriptor, ok := r.actions[name]
	if !ok {
		return action.Descriptor{}, validationError(fmt.Sprintf("unknown action %q", name), nil)
	}
	return descriptor, nil
}

func (r *Resource) prepare(name string, call action.Call, instance *resource.Instance) (*exchange, error) {
	descriptor, err := r.descriptor(name)
	if err != nil {
		return nil, err
	}

	data := call.Data
	if instance != nil {
		if descriptor.IsArray {
			return nil, validationError(fmt.Sprintf("action %q returns an array and cannot run on an instance", name), nil)
		}
		data = instance
	}

	var payload any
	if data != nil {
		payload, err = resource.Normalize(data)
		if err != nil {
			return nil, err
		}
	}

	ids, err := params.Extract(payload, descriptor.Params, r.defaults)
	if err != nil {
		return nil, err
	}
	merged := params.Merge(ids, call.Params)

	expansion, err := r.template.Expand(merged, descriptor.URL)
	if err != nil {
		return nil, err
	}

	request := transport.Request{
		Method:  descriptor.NormalizedMethod(),
		Path:    expansion.Path,
		Query:   expansion.Query,
		Headers: cloneHeaders(descriptor.Headers),
	}
	if descriptor.HasBody() {
		request.Data = payload
	}

	ex := &exchange{
		resource:   r,
		name:       name,
		descriptor: descriptor,
		call:       call,
		request:    request,
		id:         merged["id"],
		promise:    resource.NewPromise(),
	}

	switch {
	case instance != nil:
		ex.instance = instance
	case descriptor.IsArray:
		ex.collection = resource.NewCollection()
		ex.collection.MarkPending(ex.promise)
	default:
		fields, _ := resource.Fields(payload)
		ex.instance = resource.NewInstance(fields)
		ex.instance.MarkPending(ex.promise)
	}
	return ex, nil
}

func cloneHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	cloned := make(map[string]string, len(headers))
	for key, value := range headers {
		cloned[key] = value
	}
	return cloned
}
