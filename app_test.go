package donuts

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockResource1 struct {
	name string
}
type MockResource2 struct {
	name string
}

func NewMockResource1(name string) *MockResource1 {
	return &MockResource1{name: name}
}
func NewMockResource2(name string) *MockResource2 {
	return &MockResource2{name: name}
}

func TestApp_changeState(t *testing.T) {
	app := NewAppBuilder().UseStates(1, 2).Build()

	app.changeState(2)
	if app.nextState != State(2) {
		t.Errorf("The nextState should be set correctly.")
	}
	if !app.stateTransitioning {
		t.Errorf("The stateTransitioning flag should be true.")
	}

	app.executeChangeState(2)
	if app.state != State(2) {
		t.Errorf("The app state should change correctly.")
	}
}

func TestApp_addResources(t *testing.T) {
	app := &App{
		resources: make(map[reflect.Type]any),
	}

	resource1 := NewMockResource1("Resource1")
	app.addResources(resource1)
	assert.Contains(t, app.resources, reflect.TypeOf(resource1).Elem(), "Resource1 should be in resources map.")

	require.PanicsWithValue(t, fmt.Sprintf("%s is already in resources", reflect.TypeOf(resource1)), func() {
		app.addResources(resource1)
	})

	resource2 := NewMockResource2("Resource2")
	app.addResources(resource2)
	assert.Contains(t, app.resources, reflect.TypeOf(resource2).Elem(), "Resource2 should be in resources map.")

	assert.Same(t, resource2, Resource[MockResource2](app))
	assert.Nil(t, Resource[Input](app))
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := 0
	app := NewApp()
	app.UseSystem(System(func(cmd *Commands) {
		frames++
		if frames == 3 {
			cancel()
		}
	}).InStage(Update))

	app.Run(ctx)

	assert.Equal(t, 3, frames)
	assert.False(t, app.Running())
	assert.False(t, app.Step(ctx))
}

func TestApp_StatefulStopRunsFinalExit(t *testing.T) {
	const (
		loading State = iota
		running
		stopped
	)
	var trace []string
	record := func(s string) func() {
		return func() { trace = append(trace, s) }
	}

	app := NewAppBuilder().UseStates(loading, stopped).Build()
	app.UseSystem(System(record("enter loading")).InState(OnEnter(loading)))
	app.UseSystem(System(func(cmd *Commands) {
		trace = append(trace, "loading")
		cmd.ChangeState(running)
	}).InState(OnExecute(loading)))
	app.UseSystem(System(func(cmd *Commands) {
		trace = append(trace, "running")
		cmd.Stop()
	}).InState(OnExecute(running)))
	app.UseSystem(System(record("exit running")).InState(OnExit(running)))
	app.UseSystem(System(record("enter stopped")).InState(OnEnter(stopped)))
	app.UseSystem(System(record("exit stopped")).InState(OnExit(stopped)))

	app.Run(context.Background())

	assert.Equal(t, []string{
		"enter loading",
		"loading",
		"running",
		"exit running",
		"enter stopped",
		"exit stopped",
	}, trace)
	assert.Equal(t, stopped, app.State())
	assert.Equal(t, uint64(2), app.Frame())
}

func TestApp_CancelBeforeStartStillExits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exited := false
	app := NewAppBuilder().UseStates(0, 1).Build()
	app.UseSystem(System(func() { exited = true }).InState(OnExit(1)))

	app.Run(ctx)
	assert.True(t, exited)
	assert.False(t, app.Running())
}

func TestApp_FlushRemovesBeforeAdding(t *testing.T) {
	type Tag struct{ n int }

	app := NewApp()
	cmd := app.Commands()

	old := cmd.AddEntity(&Tag{n: 1})
	app.FlushCommands()
	require.True(t, cmd.HasEntity(old))

	transient := cmd.AddEntity(&Tag{n: 2})
	cmd.RemoveEntity(old)
	cmd.RemoveEntity(transient)
	kept := cmd.AddEntity(&Tag{n: 3})
	cmd.AddComponents(transient, &Parent{})
	app.FlushCommands()

	assert.False(t, cmd.HasEntity(old))
	assert.False(t, cmd.HasEntity(transient))
	assert.True(t, cmd.HasEntity(kept))
	assert.Equal(t, 1, MakeQuery1[Tag](cmd).Count())
	assert.Equal(t, 3, GetComponent[Tag](cmd, kept).n)
}

func TestApp_MissingDependencyPanics(t *testing.T) {
	app := NewApp()
	app.UseSystem(System(func(*MockResource1) {}).InStage(Update))

	assert.Panics(t, func() { app.Step(context.Background()) })
}
