// Package rlenv wraps one column of a generated table as a sequential
// decision problem: at every step a policy scales a forecaster's prediction
// of the next value and is rewarded by how close the scaled prediction lands.
package rlenv

import (
	"errors"
	"fmt"
	"math"
)

// Predictor returns a point prediction for the value following window
type Predictor interface {
	Predict(window []float64) float64
}

// Policy chooses an action in [-1, 1] for an observation
type Policy interface {
	Act(observation []float64) float64
}

// PolicyFunc adapts a function to the Policy interface
type PolicyFunc func(observation []float64) float64

func (f PolicyFunc) Act(observation []float64) float64 {
	return f(observation)
}

var (
	// ErrEpisodeDone is returned by Step after the episode terminated
	ErrEpisodeDone = errors.New("episode already terminated")
	// ErrInvalidAction is returned for actions outside [-1, 1]
	ErrInvalidAction = errors.New("action outside [-1, 1]")
)

// Env is a univariate environment with a fixed lookback window
type Env struct {
	series    []float64
	predictor Predictor
	window    int
	cursor    int
	done      bool
}

// New creates an environment over series. The series must hold at least
// window+1 values; with exactly window+1 the episode is a single step.
func New(series []float64, predictor Predictor, window int) (*Env, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be greater than 0")
	}
	if len(series) < window+1 {
		return nil, fmt.Errorf("series of %d values is too short for window %d", len(series), window)
	}
	if predictor == nil {
		return nil, fmt.Errorf("predictor is required")
	}

	env := &Env{series: series, predictor: predictor, window: window}
	env.Reset()
	return env, nil
}

// Reset rewinds the cursor to the first full window and returns it
func (e *Env) Reset() []float64 {
	e.cursor = e.window
	e.done = false
	return e.observation()
}

// Cursor returns the index of the value the next step predicts
func (e *Env) Cursor() int {
	return e.cursor
}

func (e *Env) observation() []float64 {
	obs := make([]float64, e.window)
	copy(obs, e.series[e.cursor-e.window:e.cursor])
	return obs
}

// Step scores the predictor's forecast scaled by (1+action) against the
// value at the cursor and advances the cursor. The episode terminates when
// the cursor reaches the last value; the final observation is then the
// window that was just scored. Truncation never happens.
func (e *Env) Step(action float64) (observation []float64, reward float64, terminated, truncated bool, err error) {
	if e.done {
		return nil, 0, true, false, ErrEpisodeDone
	}
	if math.IsNaN(action) || action < -1 || action > 1 {
		return nil, 0, false, false, fmt.Errorf("%w: %v", ErrInvalidAction, action)
	}

	window := e.observation()
	actual := e.series[e.cursor]
	predicted := e.predictor.Predict(window)
	reward = -math.Abs(actual - predicted*(1+action))

	e.cursor++
	terminated = e.cursor >= len(e.series)-1
	e.done = terminated

	if terminated {
		return window, reward, true, false, nil
	}
	return e.observation(), reward, false, false, nil
}

// Rollout plays one full episode from a reset and returns the rewards
func Rollout(env *Env, policy Policy) ([]float64, error) {
	obs := env.Reset()
	var rewards []float64

	for {
		next, reward, terminated, truncated, err := env.Step(policy.Act(obs))
		if err != nil {
			return rewards, err
		}
		rewards = append(rewards, reward)
		if terminated || truncated {
			return rewards, nil
		}
		obs = next
	}
}
