package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, 50, cfg.Training.Epochs)
	assert.Equal(t, 1000, cfg.Training.MaximumActions)
	assert.Equal(t, 0.8, cfg.Training.LearningRate)
	assert.Equal(t, "random", cfg.Training.Policy)
	assert.Equal(t, 100, cfg.Routing.MaxSteps)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "rlpath", cfg.Logger.ServiceName)
	assert.NoError(t, cfg.Validate())
}

func TestLoadExpandsHomeAndReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rlpath.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
training:
  epochs: 7
  policy: softmax
  temperature: 0.5
store:
  dir: ~/experiments
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Training.Epochs)
	assert.Equal(t, "softmax", cfg.Training.Policy)

	home, err := homedir.Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "experiments"), cfg.Store.Dir)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("RLPATH_TRAINING_EPOCHS", "12")
	t.Setenv("RLPATH_STORE_BACKEND", "redis")
	t.Setenv("RLPATH_REDIS_PASSWORD", "hunter2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Training.Epochs)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.Equal(t, "hunter2", cfg.Store.Redis.Password)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(v *viper.Viper){
		"no epochs":        func(v *viper.Viper) { v.Set("training.epochs", 0) },
		"learning rate":    func(v *viper.Viper) { v.Set("training.learning_rate", 1.5) },
		"discount":         func(v *viper.Viper) { v.Set("training.discount", -0.1) },
		"softmax at zero":  func(v *viper.Viper) { v.Set("training.policy", "softmax"); v.Set("training.temperature", 0) },
		"no steps":         func(v *viper.Viper) { v.Set("routing.max_steps", 0) },
		"unknown backend":  func(v *viper.Viper) { v.Set("store.backend", "s3") },
		"redis without it": func(v *viper.Viper) { v.Set("store.backend", "redis"); v.Set("store.redis.addr", "") },
		"gin mode":         func(v *viper.Viper) { v.Set("server.mode", "production") },
		"strict no rules":  func(v *viper.Viper) { v.Set("training.policy", "strict") },
		"strict no action": func(v *viper.Viper) {
			v.Set("training.policy", "strict")
			v.Set("training.rules", []map[string]any{{"state": "8"}})
		},
		"strict fallback": func(v *viper.Viper) {
			v.Set("training.policy", "strict")
			v.Set("training.fallback", "strict")
			v.Set("training.rules", []map[string]any{{"action": "move to 9"}})
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			mutate(v)
			_, err := NewConfigFromViper(v)
			assert.Error(t, err)
		})
	}
}

func TestStrictRulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rlpath.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
training:
  policy: strict
  fallback: random
  rules:
    - state: "8"
      action: move to 9
    - action: move to 11
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "random", cfg.Training.Fallback)
	assert.Equal(t, []StrictRule{{State: "8", Action: "move to 9"}, {Action: "move to 11"}}, cfg.Training.Rules)
}

func TestBindEnvReportsErrors(t *testing.T) {
	v := viper.New()
	require.NoError(t, BindEnv(v))
	t.Setenv("RLPATH_REDIS_PASSWORD", "s3cret")
	assert.Equal(t, "s3cret", v.GetString("store.redis.password"))
}
