package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/crmarques/restresource/action"
	"github.com/crmarques/restresource/resource"
	"github.com/crmarques/restresource/transport"
)

// exchange is one pending action invocation.
type exchange struct {
	resource   *Resource
	name       string
	descriptor action.Descriptor
	call       action.Call
	request    transport.Request
	id         any

	instance   *resource.Instance
	collection *resource.Collection
	promise    *resource.Promise
}

func (ex *exchange) target() resource.Target {
	if ex.collection != nil {
		return ex.collection
	}
	return ex.instance
}

func (ex *exchange) run(ctx context.Context) {
	if !ex.descriptor.BypassCache && ex.serveFromCache(ctx) {
		return
	}
	go ex.roundTrip(ctx)
}

func (ex *exchange) serveFromCache(ctx context.Context) bool {
	r := ex.resource
	logger := r.logger(ctx).WithValues("namespace", r.namespace, "action", ex.name, "id", ex.id)

	cached, hit := r.cache.Get(ex.id, ex.call.Params)
	if hit {
		if err := ex.merge(cached, false); err != nil {
			logger.V(1).Info("ignoring cached snapshot", "error", err.Error())
			hit = false
		}
	}
	r.opts.recorder.CacheLookup(r.namespace, ex.name, hit)
	if !hit {
		logger.V(1).Info("cache miss")
		return false
	}

	logger.V(1).Info("cache hit")
	ex.settle(action.Response{Resource: ex.target(), Cached: true}, nil)
	return true
}

func (ex *exchange) roundTrip(ctx context.Context) {
	r := ex.resource
	logger := r.logger(ctx).WithValues("namespace", r.namespace, "action", ex.name, "method", ex.request.Method, "path", ex.request.Path)

	started := time.Now()
	response, err := r.deps.Transport.Send(ctx, ex.request)
	r.opts.recorder.TransportCall(r.namespace, ex.name, ex.request.Method, time.Since(started), err)
	if err != nil {
		logger.V(1).Info("transport failed", "error", err.Error())
		ex.settle(action.Response{}, err)
		return
	}

	if err := ex.merge(response.Data, true); err != nil {
		logger.V(1).Info("response rejected", "error", err.Error())
		ex.settle(action.Response{}, err)
		return
	}

	logger.V(1).Info("transport settled", "status", response.Status)
	ex.settle(action.Response{
		Resource: ex.target(),
		Data:     response.Data,
		Headers:  response.Headers,
		Status:   response.Status,
	}, nil)
}

// merge copies data onto the target, checking its shape first so a rejected
// payload leaves the target untouched. Scalars carry nothing to merge for
// object actions. Stored snapshots go to the cache when store is set.
func (ex *exchange) merge(data any, store bool) error {
	if data == nil {
		return nil
	}

	items, isArray := data.([]any)
	if isArray != ex.descriptor.IsArray {
		return badResponseShapeError(fmt.Sprintf(
			"error in resource configuration for action %q: expected response to contain an %s but got an %s",
			ex.name,
			shapeName(ex.descriptor.IsArray),
			shapeName(isArray),
		))
	}

	r := ex.resource
	if isArray {
		rows := make([]map[string]any, 0, len(items))
		for idx, item := range items {
			fields, ok := item.(map[string]any)
			if !ok {
				return badResponseShapeError(fmt.Sprintf(
					"error in resource configuration for action %q: expected array element %d to be an object but got %T",
					ex.name, idx, item,
				))
			}
			rows = append(rows, fields)
		}
		ex.collection.Replace(rows)
		if store {
			for _, row := range rows {
				r.cache.Set(row, ex.call.Params)
			}
		}
		return nil
	}

	fields, ok := data.(map[string]any)
	if !ok {
		return nil
	}
	ex.instance.Replace(fields)
	if store {
		r.cache.Set(fields, ex.call.Params)
	}
	return nil
}

// settle marks the target resolved, runs the interceptors and fires exactly
// one of the caller callbacks before settling the promise.
func (ex *exchange) settle(response action.Response, err error) {
	ex.markResolved()

	if err == nil {
		intercept := ex.descriptor.Interceptor.Response
		if intercept == nil {
			intercept = action.DefaultResponseInterceptor
		}
		value, interceptErr := intercept(response)
		if interceptErr == nil {
			if ex.call.OnSuccess != nil {
				ex.call.OnSuccess(value, response.Headers)
			}
			ex.promise.Resolve(value)
			return
		}

		if ex.call.OnError != nil {
			ex.call.OnError(interceptErr)
		}
		ex.promise.Reject(interceptErr)
		return
	}

	if ex.call.OnError != nil {
		ex.call.OnError(err)
	}
	if recoverFrom := ex.descriptor.Interceptor.ResponseError; recoverFrom != nil {
		value, recoverErr := recoverFrom(err)
		if recoverErr == nil {
			ex.promise.Resolve(value)
			return
		}
		err = recoverErr
	}
	ex.promise.Reject(err)
}

func (ex *exchange) markResolved() {
	if ex.collection != nil {
		ex.collection.MarkResolved()
		return
	}
	ex.instance.MarkResolved()
}
