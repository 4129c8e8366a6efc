package stream

import (
	"errors"
	"fmt"
)

var errNoRoot = errors.New("no root value")

type frame struct {
	isObject bool
	object   map[string]any
	array    []any
	key      string
	hasKey   bool
}

// builder assembles structural events into a value tree. It rejects any
// event whose depth disagrees with the containers it has open.
type builder struct {
	stack []frame
	root  any
	done  bool
}

func (b *builder) WriteEvent(ev Event) error {
	switch ev.Type {
	case EventBeginObject, EventBeginArray, EventScalar:
		if ev.Depth != len(b.stack) {
			return fmt.Errorf("%s at depth %d, want %d", ev.Type, ev.Depth, len(b.stack))
		}
		if ev.Type == EventScalar {
			return b.add(ev.Value)
		}
		if len(b.stack) == 0 && b.done {
			return fmt.Errorf("%s after root value", ev.Type)
		}
		if err := b.checkSlot(); err != nil {
			return err
		}
		f := frame{isObject: ev.Type == EventBeginObject}
		if f.isObject {
			f.object = map[string]any{}
		} else {
			f.array = []any{}
		}
		b.stack = append(b.stack, f)
		return nil

	case EventKey:
		if ev.Depth != len(b.stack) || len(b.stack) == 0 {
			return fmt.Errorf("key %q at depth %d, want %d", ev.Key, ev.Depth, len(b.stack))
		}
		top := &b.stack[len(b.stack)-1]
		if !top.isObject || top.hasKey {
			return fmt.Errorf("unexpected key %q", ev.Key)
		}
		top.key, top.hasKey = ev.Key, true
		return nil

	case EventEndObject, EventEndArray:
		if len(b.stack) == 0 || ev.Depth != len(b.stack)-1 {
			return fmt.Errorf("%s at depth %d with %d open containers", ev.Type, ev.Depth, len(b.stack))
		}
		top := b.stack[len(b.stack)-1]
		if top.isObject != (ev.Type == EventEndObject) {
			return fmt.Errorf("mismatched %s", ev.Type)
		}
		if top.isObject && top.hasKey {
			return fmt.Errorf("missing value for key %q", top.key)
		}
		b.stack = b.stack[:len(b.stack)-1]
		if top.isObject {
			return b.add(top.object)
		}
		return b.add(top.array)
	}
	return fmt.Errorf("unknown event type %d", ev.Type)
}

// checkSlot verifies a value may be placed at the current position.
func (b *builder) checkSlot() error {
	if len(b.stack) == 0 {
		return nil
	}
	top := &b.stack[len(b.stack)-1]
	if top.isObject && !top.hasKey {
		return errors.New("object value without key")
	}
	return nil
}

func (b *builder) add(v any) error {
	if len(b.stack) == 0 {
		if b.done {
			return errors.New("more than one root value")
		}
		b.root, b.done = v, true
		return nil
	}
	if err := b.checkSlot(); err != nil {
		return err
	}
	top := &b.stack[len(b.stack)-1]
	if top.isObject {
		top.object[top.key] = v
		top.key, top.hasKey = "", false
		return nil
	}
	top.array = append(top.array, v)
	return nil
}

// result returns the root once exactly one value has been fully closed.
func (b *builder) result() (any, error) {
	if !b.done || len(b.stack) != 0 {
		return nil, errNoRoot
	}
	return b.root, nil
}
