package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var silent = ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

type journal struct {
	events []string
}

func (j *journal) dep(name string, requires ...string) Dependency {
	return Dependency{
		Name:     name,
		Requires: requires,
		StartFn: func(context.Context) error {
			j.events = append(j.events, "start "+name)
			return nil
		},
		StopFn: func(context.Context) error {
			j.events = append(j.events, "stop "+name)
			return nil
		},
	}
}

func TestStartup_StartsInDependencyOrderAndStopsInReverse(t *testing.T) {
	j := &journal{}
	s := NewStartup(silent, 1)
	s.AddDependency(j.dep("http", "database", "redis"))
	s.AddDependency(j.dep("database"))
	s.AddDependency(j.dep("redis"))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start database", "start redis", "start http"}, j.events)
	assert.Equal(t, StartupStatusStarted, s.Status("http"))

	j.events = nil
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"stop http", "stop redis", "stop database"}, j.events)
	assert.Equal(t, StartupStatusStopped, s.Status("database"))
}

func TestStartup_RetriesFailedDependency(t *testing.T) {
	calls := 0
	s := NewStartup(silent, 3)
	s.backoffUnit = time.Millisecond
	s.AddDependency(Dependency{
		Name: "database",
		StartFn: func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		},
	})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestStartup_GivesUp(t *testing.T) {
	s := NewStartup(silent, 2)
	s.backoffUnit = time.Millisecond
	s.AddDependency(Dependency{Name: "kafka", StartFn: func(context.Context) error { return assert.AnError }})

	err := s.Start(context.Background())
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, StartupStatusFailed, s.Status("kafka"))
}

func TestStartup_UnknownDependency(t *testing.T) {
	j := &journal{}
	s := NewStartup(silent, 1)
	s.AddDependency(j.dep("http", "database"))

	err := s.Start(context.Background())
	assert.ErrorContains(t, err, "unknown dependency 'database'")
	assert.Empty(t, j.events)
}
