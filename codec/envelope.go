package codec

import (
	"fmt"
	"io"

	json "github.com/json-iterator/go"
	"github.com/zeu5/rlpath/types"
)

// Version of the envelope layout
const Version = 1

// Tagged is a value with its kind discriminant
type Tagged struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type entryEnvelope struct {
	State  *Tagged `json:"state"`
	Action *Tagged `json:"action"`
	Result *Tagged `json:"result"`
	Value  float64 `json:"value"`
}

type stateEnvelope struct {
	ID      string          `json:"id"`
	Entries []entryEnvelope `json:"entries"`
}

type experimentEnvelope struct {
	Version     int            `json:"version"`
	Name        string         `json:"name"`
	Environment *Tagged        `json:"environment"`
	Goal        *Tagged        `json:"goal"`
	State       *stateEnvelope `json:"state"`
}

func tag(v any) (*Tagged, error) {
	k, ok := v.(Kinded)
	if !ok {
		return nil, fmt.Errorf("%w: %T has no kind", ErrUnknownKind, v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", k.Kind(), err)
	}
	return &Tagged{Kind: k.Kind(), Data: data}, nil
}

func encodeState(s *types.ExperimentState) (*stateEnvelope, error) {
	out := &stateEnvelope{ID: s.ID, Entries: make([]entryEnvelope, 0, s.QualityMatrix.Len())}
	for _, e := range s.QualityMatrix.Entries() {
		st, err := tag(e.Pair.State)
		if err != nil {
			return nil, err
		}
		act, err := tag(e.Pair.Action)
		if err != nil {
			return nil, err
		}
		var res *Tagged
		if e.Result != nil {
			if res, err = tag(e.Result); err != nil {
				return nil, err
			}
		}
		out.Entries = append(out.Entries, entryEnvelope{State: st, Action: act, Result: res, Value: e.Value})
	}
	return out, nil
}

func (r *Registry) decodeStateEnvelope(env *stateEnvelope) (*types.ExperimentState, error) {
	if env == nil {
		return nil, fmt.Errorf("%w: missing state", ErrMalformed)
	}
	out := types.NewExperimentState()
	if env.ID != "" {
		out.ID = env.ID
	}
	for i, e := range env.Entries {
		if e.State == nil || e.Action == nil {
			return nil, fmt.Errorf("%w: entry %d lacks state or action", ErrMalformed, i)
		}
		st, err := r.decodeState(e.State)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		act, err := r.decodeAction(e.Action)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		var res types.State
		if e.Result != nil {
			if res, err = r.decodeState(e.Result); err != nil {
				return nil, fmt.Errorf("entry %d result: %w", i, err)
			}
		}
		out.QualityMatrix.Set(st, act, res, e.Value)
	}
	return out, nil
}

// EncodeState writes the experiment state alone
func (r *Registry) EncodeState(w io.Writer, s *types.ExperimentState) error {
	env, err := encodeState(s)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(env)
}

// DecodeState reads an experiment state written by EncodeState
func (r *Registry) DecodeState(rd io.Reader) (*types.ExperimentState, error) {
	env := &stateEnvelope{}
	if err := json.NewDecoder(rd).Decode(env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return r.decodeStateEnvelope(env)
}

// EncodeExperiment writes the full bundle: environment, goal and learned state
func (r *Registry) EncodeExperiment(w io.Writer, e *types.Experiment) error {
	envTag, err := tag(e.Environment)
	if err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	goalTag, err := tag(e.Goal)
	if err != nil {
		return fmt.Errorf("goal: %w", err)
	}
	st, err := encodeState(e.State)
	if err != nil {
		return fmt.Errorf("state: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&experimentEnvelope{
		Version:     Version,
		Name:        e.Name,
		Environment: envTag,
		Goal:        goalTag,
		State:       st,
	})
}

// DecodeExperiment reads a bundle written by EncodeExperiment. Unknown kinds
// and malformed data fail; nothing is coerced.
func (r *Registry) DecodeExperiment(rd io.Reader) (*types.Experiment, error) {
	env := &experimentEnvelope{}
	if err := json.NewDecoder(rd).Decode(env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if env.Version != Version {
		return nil, fmt.Errorf("%w: version %d", ErrMalformed, env.Version)
	}
	if env.Environment == nil || env.Goal == nil {
		return nil, fmt.Errorf("%w: missing environment or goal", ErrMalformed)
	}
	environment, err := r.decodeEnvironment(env.Environment)
	if err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	goal, err := r.decodeGoal(env.Goal)
	if err != nil {
		return nil, fmt.Errorf("goal: %w", err)
	}
	state, err := r.decodeStateEnvelope(env.State)
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}
	return types.NewExperiment(env.Name, environment, goal, state), nil
}
