package acta

import (
	"fmt"
	"time"

	"github.com/jsiltala/acta/pkg/api"
)

// ActionBuilder provides a fluent API for describing actions:
//
//	action := acta.NewActionBuilder("sendInvoice", plan).
//	    Content(invoice).
//	    Delay(5 * time.Second).
//	    Hooks("audit", "quota").
//	    Then(followUp).
//	    Licensed().
//	    Build()
//
//	seq.Assign(action)
type ActionBuilder struct {
	action *api.Action
}

// NewActionBuilder starts building an action named name, bound to plan.
func NewActionBuilder(name string, plan *api.Plan) *ActionBuilder {
	if name == "" {
		panic("acta: action name must not be empty")
	}
	if plan == nil {
		panic(fmt.Sprintf("acta: action %q has nil plan", name))
	}
	return &ActionBuilder{action: api.NewAction(name, nil, plan)}
}

// Content sets the argument payload passed to the handler.
func (b *ActionBuilder) Content(v any) *ActionBuilder {
	b.action.Content = v
	return b
}

// Delay suspends the action's execution for d before its hooks run.
func (b *ActionBuilder) Delay(d time.Duration) *ActionBuilder {
	if d > 0 {
		b.action.Metadata.Put(api.MetaDelay, d)
	}
	return b
}

// Hooks sets the ordered list of hook names invoked before dispatch.
// Names missing from Life.Span are skipped at execution time.
func (b *ActionBuilder) Hooks(names ...string) *ActionBuilder {
	if len(names) > 0 {
		b.action.Metadata.Put(api.MetaHooks, names)
	}
	return b
}

// Then chains next as the continuation executed after this action
// succeeds. The continuation runs on the same worker, never re-enqueued.
func (b *ActionBuilder) Then(next *api.Action) *ActionBuilder {
	if next != nil {
		b.action.Metadata.Put(api.MetaNext, next)
	}
	return b
}

// Meta sets an arbitrary metadata entry.
func (b *ActionBuilder) Meta(key string, v any) *ActionBuilder {
	b.action.Metadata.Put(key, v)
	return b
}

// Licensed authorizes the action to run.
func (b *ActionBuilder) Licensed() *ActionBuilder {
	b.action.License.Set(true)
	return b
}

// Build returns the described action.
func (b *ActionBuilder) Build() *api.Action {
	return b.action
}
