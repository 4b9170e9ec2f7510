// Package store keeps serialized experiments by name, on disk or in redis.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/zeu5/rlpath/codec"
	"github.com/zeu5/rlpath/types"
)

var (
	ErrNotFound    = errors.New("experiment not found")
	ErrInvalidName = errors.New("invalid experiment name")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Store holds encoded experiments by name
type Store interface {
	Save(ctx context.Context, name string, data []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Experiments encodes and decodes experiments on top of a Store
type Experiments struct {
	store    Store
	registry *codec.Registry
}

func NewExperiments(s Store, registry *codec.Registry) *Experiments {
	return &Experiments{store: s, registry: registry}
}

func (e *Experiments) Save(ctx context.Context, exp *types.Experiment) error {
	buf := &bytes.Buffer{}
	if err := e.registry.EncodeExperiment(buf, exp); err != nil {
		return fmt.Errorf("encoding %s: %w", exp.Name, err)
	}
	return e.store.Save(ctx, exp.Name, buf.Bytes())
}

func (e *Experiments) Load(ctx context.Context, name string) (*types.Experiment, error) {
	data, err := e.store.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	exp, err := e.registry.DecodeExperiment(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return exp, nil
}

func (e *Experiments) List(ctx context.Context) ([]string, error) {
	return e.store.List(ctx)
}

// Resume loads the named experiment and merges its learned state into exp.
// A missing experiment is not an error; the bool reports whether anything
// was merged.
func (e *Experiments) Resume(ctx context.Context, exp *types.Experiment) (bool, error) {
	prev, err := e.Load(ctx, exp.Name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	exp.State.Merge(prev.State)
	return true, nil
}
