package donuts

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
)

type systemFn any

// Module installs resources and systems into an App.
type Module interface {
	Install(app *App, cmd *Commands)
}

type App struct {
	stateful           bool
	stateTransitioning bool
	initialState       State
	finalState         State
	nextState          State
	state              State
	stages             []Stage
	systems            map[string]map[State]map[statePhase][]systemFn
	systemsStateless   map[string][]systemFn
	resources          map[reflect.Type]any
	ecs                *Ecs

	started bool
	stopped bool
	frame   uint64

	// Command buffering
	pendingAdditions []pendingAdd
	pendingRemovals  []EntityId
	pendingCompAdds  []pendingCompAdd
}

type pendingAdd struct {
	eid        EntityId
	components []any
}

type pendingCompAdd struct {
	eid        EntityId
	components []any
}

// NewApp builds a stateless app with the given modules installed.
func NewApp(modules ...Module) *App {
	return NewAppBuilder().UseModule(modules...).Build()
}

func (app *App) Commands() *Commands {
	return &Commands{app: app}
}

// UseModules installs modules into an already built app.
func (app *App) UseModules(modules ...Module) *App {
	cmd := app.Commands()
	for _, module := range modules {
		module.Install(app, cmd)
	}
	return app
}

// State returns the current state of a stateful app.
func (app *App) State() State {
	return app.state
}

// Frame returns the number of frames run so far.
func (app *App) Frame() uint64 {
	return app.frame
}

// Running reports whether the frame loop may still make progress.
func (app *App) Running() bool {
	return !app.stopped
}

// Run drives the frame loop until the app stops, either because the final
// state was reached or because ctx was cancelled.
func (app *App) Run(ctx context.Context) {
	for app.Step(ctx) {
	}
}

// Step runs a single frame and reports whether another frame should follow.
func (app *App) Step(ctx context.Context) bool {
	if app.stopped {
		return false
	}
	if !app.started {
		app.start()
	}
	if ctx != nil && ctx.Err() != nil {
		app.Stop()
	}

	// A stop requested before this frame still runs the transition below so
	// the final state's enter/exit systems get their turn.
	if !app.stateful && app.stopped {
		return false
	}

	app.callSystems(app.state, execute)
	app.frame++

	if app.stateful {
		if app.stateTransitioning {
			app.stateTransitioning = false
			app.executeChangeState(app.nextState)
		}
		if app.state == app.finalState {
			app.callSystems(app.state, exit)
			app.stopped = true
		}
	}
	return !app.stopped
}

// Stop asks the loop to finish. Stateful apps transition to their final
// state at the end of the current frame.
func (app *App) Stop() {
	if app.stateful {
		if app.state != app.finalState {
			app.changeState(app.finalState)
		}
		return
	}
	app.stopped = true
}

func (app *App) start() {
	app.started = true
	if app.stateful {
		app.Logger().Infof("Running in stateful mode...")
		app.state = app.initialState
		app.callSystems(app.state, enter)
	} else {
		app.Logger().Infof("Running in stateless mode...")
	}
}

func (app *App) callSystems(state State, phase statePhase) {
	for _, stage := range app.stages {
		if phase == execute {
			for _, system := range app.systemsStateless[stage.Name] {
				app.callSystem(system)
			}
		}

		if app.stateful {
			for _, system := range app.systems[stage.Name][state][phase] {
				app.callSystem(system)
			}
		}
		app.FlushCommands()
	}
}

func (app *App) changeState(newState State) {
	app.nextState = newState
	app.stateTransitioning = true
}

func (app *App) executeChangeState(newState State) {
	app.callSystems(app.state, exit)
	app.state = newState
	app.callSystems(app.state, enter)
}

func (app *App) addResources(resources ...any) *App {
	for _, resource := range resources {
		resourceType := reflect.TypeOf(resource)
		if resourceType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("resource %s must be a pointer", resourceType))
		}
		if _, ok := app.resources[resourceType.Elem()]; ok {
			panic(fmt.Sprintf("%s is already in resources", resourceType))
		}
		app.resources[resourceType.Elem()] = resource
	}
	return app
}

// Resource returns the resource of type T, or nil when none was added.
func Resource[T any](app *App) *T {
	if res, ok := app.resources[reflect.TypeFor[T]()]; ok {
		return res.(*T)
	}
	return nil
}

var typeOfCommands = reflect.TypeOf(Commands{})

// callSystem resolves every pointer argument of a system either to a fresh
// Commands or to the resource of that type.
func (app *App) callSystem(system systemFn) {
	systemType := reflect.TypeOf(system)
	systemValue := reflect.ValueOf(system)

	args := make([]reflect.Value, systemType.NumIn())
	for i := range args {
		argType := systemType.In(i)
		if argType.Kind() != reflect.Pointer {
			panic(fmt.Sprintf("system %s: argument %d must be a pointer, got %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(), i, argType))
		}
		underlyingType := argType.Elem()

		if underlyingType == typeOfCommands {
			args[i] = reflect.ValueOf(&Commands{app: app})
		} else if resource, ok := app.resources[underlyingType]; ok {
			args[i] = reflect.ValueOf(resource)
		} else {
			msg := fmt.Sprintf("Unable to resolve System dependency.\nSystem: %s\nSystem type: %s\nDependency: %s",
				runtime.FuncForPC(systemValue.Pointer()).Name(),
				systemType,
				argType,
			)
			app.Logger().Errorf("%s", msg)
			panic(msg)
		}
	}
	systemValue.Call(args)
}

// FlushCommands applies buffered structural changes: removals first, then
// entity additions, then component additions. An entity added and removed
// within the same batch never materialises.
func (app *App) FlushCommands() {
	if len(app.pendingAdditions) == 0 && len(app.pendingRemovals) == 0 && len(app.pendingCompAdds) == 0 {
		return
	}

	removed := make(set[EntityId], len(app.pendingRemovals))
	for _, eid := range app.pendingRemovals {
		removed[eid] = struct{}{}
		app.ecs.removeEntity(eid)
	}
	app.pendingRemovals = app.pendingRemovals[:0]

	for _, add := range app.pendingAdditions {
		if _, gone := removed[add.eid]; gone {
			continue
		}
		app.ecs.insertEntity(add.eid, add.components...)
	}
	app.pendingAdditions = app.pendingAdditions[:0]

	for _, add := range app.pendingCompAdds {
		if _, gone := removed[add.eid]; gone {
			continue
		}
		app.ecs.addComponents(add.eid, add.components...)
	}
	app.pendingCompAdds = app.pendingCompAdds[:0]
}
