// Package hydrate decodes state snapshots into typed structs.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context identifies the snapshot being decoded.
type Context struct {
	ManagerID string
	// Path is the dotted state path of the snapshot, empty for the root.
	Path string
}

func (c Context) label() string {
	if c.Path == "" {
		return c.ManagerID
	}
	return c.ManagerID + ":" + c.Path
}

// PreHook rewrites the snapshot before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or validates the decoded value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces JSON decoding.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts state snapshots into T.
type Decoder[T any] struct {
	preHooks  []PreHook
	postHooks []PostHook[T]
	configure []func(*json.Decoder)
	custom    CustomDecoder[T]
}

func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithUseNumber decodes numbers into interface fields as json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return WithDecoderConfig[T](func(dec *json.Decoder) { dec.UseNumber() })
}

// WithDisallowUnknownFields fails on state keys T does not declare.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return WithDecoderConfig[T](func(dec *json.Decoder) { dec.DisallowUnknownFields() })
}

func WithDecoderConfig[T any](configure func(*json.Decoder)) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if configure != nil {
			d.configure = append(d.configure, configure)
		}
	}
}

func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode runs the pre-hooks on a detached copy of snapshot, decodes it and
// runs the post-hooks. snapshot itself is never modified.
func (d *Decoder[T]) Decode(ctx Context, snapshot map[string]any) (T, error) {
	var zero T
	if snapshot == nil {
		return zero, fmt.Errorf("hydrate: snapshot is nil for %q", ctx.label())
	}

	current, err := detach(snapshot)
	if err != nil {
		return zero, fmt.Errorf("hydrate: copy snapshot for %q: %w", ctx.label(), err)
	}
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %q: %w", ctx.label(), err)
		}
		if next != nil {
			current = next
		}
	}

	result, err := d.decode(ctx, current)
	if err != nil {
		return zero, err
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %q: %w", ctx.label(), err)
		}
	}
	return result, nil
}

func (d *Decoder[T]) decode(ctx Context, snapshot map[string]any) (T, error) {
	var result T
	if d.custom != nil {
		out, err := d.custom(ctx, snapshot)
		if err != nil {
			return result, fmt.Errorf("hydrate: custom decoder for %q: %w", ctx.label(), err)
		}
		return out, nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return result, fmt.Errorf("hydrate: marshal %q: %w", ctx.label(), err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	for _, configure := range d.configure {
		configure(dec)
	}
	if err := dec.Decode(&result); err != nil {
		return result, fmt.Errorf("hydrate: decode %q: %w", ctx.label(), err)
	}
	return result, nil
}

func detach(snapshot map[string]any) (map[string]any, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
