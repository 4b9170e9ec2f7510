// Package codec persists experiments as a self describing JSON envelope.
// Every state, action, goal and environment travels with a kind tag; a
// Registry maps each tag to the decode function registered for it.
package codec

import (
	"errors"
	"fmt"
	"sort"

	json "github.com/json-iterator/go"
	"github.com/zeu5/rlpath/types"
)

var (
	ErrUnknownKind  = errors.New("unknown kind")
	ErrKindMismatch = errors.New("kind registered under another category")
	ErrMalformed    = errors.New("malformed envelope")
)

// Kinded is implemented by every value that can be persisted
type Kinded interface {
	Kind() string
}

// Category groups kinds by the interface they decode to
type Category string

const (
	CategoryState       Category = "state"
	CategoryAction      Category = "action"
	CategoryGoal        Category = "goal"
	CategoryEnvironment Category = "environment"
)

type (
	StateDecoder       func([]byte) (types.State, error)
	ActionDecoder      func([]byte) (types.Action, error)
	GoalDecoder        func([]byte) (types.TrainGoal, error)
	EnvironmentDecoder func([]byte) (types.Environment, error)
)

// Registry holds the decode functions per kind. Registration happens
// at setup; lookups afterwards are read only.
type Registry struct {
	categories   map[string]Category
	states       map[string]StateDecoder
	actions      map[string]ActionDecoder
	goals        map[string]GoalDecoder
	environments map[string]EnvironmentDecoder
}

func NewRegistry() *Registry {
	return &Registry{
		categories:   make(map[string]Category),
		states:       make(map[string]StateDecoder),
		actions:      make(map[string]ActionDecoder),
		goals:        make(map[string]GoalDecoder),
		environments: make(map[string]EnvironmentDecoder),
	}
}

func (r *Registry) claim(kind string, c Category) error {
	if kind == "" {
		return fmt.Errorf("%w: empty kind", ErrMalformed)
	}
	if existing, ok := r.categories[kind]; ok && existing != c {
		return fmt.Errorf("%w: %s is a %s, not a %s", ErrKindMismatch, kind, existing, c)
	}
	r.categories[kind] = c
	return nil
}

func (r *Registry) RegisterState(kind string, d StateDecoder) error {
	if err := r.claim(kind, CategoryState); err != nil {
		return err
	}
	r.states[kind] = d
	return nil
}

func (r *Registry) RegisterAction(kind string, d ActionDecoder) error {
	if err := r.claim(kind, CategoryAction); err != nil {
		return err
	}
	r.actions[kind] = d
	return nil
}

func (r *Registry) RegisterGoal(kind string, d GoalDecoder) error {
	if err := r.claim(kind, CategoryGoal); err != nil {
		return err
	}
	r.goals[kind] = d
	return nil
}

func (r *Registry) RegisterEnvironment(kind string, d EnvironmentDecoder) error {
	if err := r.claim(kind, CategoryEnvironment); err != nil {
		return err
	}
	r.environments[kind] = d
	return nil
}

// Kinds lists the registered kinds of a category, sorted
func (r *Registry) Kinds(c Category) []string {
	out := make([]string, 0)
	for k, cat := range r.categories {
		if cat == c {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (r *Registry) check(kind string, c Category) error {
	existing, ok := r.categories[kind]
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrUnknownKind, c, kind)
	}
	if existing != c {
		return fmt.Errorf("%w: %q is a %s, expected a %s", ErrKindMismatch, kind, existing, c)
	}
	return nil
}

func (r *Registry) decodeState(t *Tagged) (types.State, error) {
	if err := r.check(t.Kind, CategoryState); err != nil {
		return nil, err
	}
	return r.states[t.Kind](t.Data)
}

func (r *Registry) decodeAction(t *Tagged) (types.Action, error) {
	if err := r.check(t.Kind, CategoryAction); err != nil {
		return nil, err
	}
	return r.actions[t.Kind](t.Data)
}

func (r *Registry) decodeGoal(t *Tagged) (types.TrainGoal, error) {
	if err := r.check(t.Kind, CategoryGoal); err != nil {
		return nil, err
	}
	return r.goals[t.Kind](t.Data)
}

func (r *Registry) decodeEnvironment(t *Tagged) (types.Environment, error) {
	if err := r.check(t.Kind, CategoryEnvironment); err != nil {
		return nil, err
	}
	return r.environments[t.Kind](t.Data)
}

// Decode is a helper for decode functions of plain JSON values
func Decode[T any](raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return v, nil
}
