package donuts

// Commands is the handle systems use to touch the world. Structural changes
// are buffered and applied when the current stage ends.
type Commands struct {
	app *App
}

func (cmd *Commands) ChangeState(newState State) *Commands {
	cmd.app.changeState(newState)
	return cmd
}

// Stop requests the end of the frame loop.
func (cmd *Commands) Stop() {
	cmd.app.Stop()
}

func (cmd *Commands) AddResources(resources ...any) *Commands {
	cmd.app.addResources(resources...)
	return cmd
}

func (cmd *Commands) Logger() Logger {
	return cmd.app.Logger()
}

// AddEntity reserves an id right away; the entity exists once commands are flushed.
func (cmd *Commands) AddEntity(components ...any) EntityId {
	eid := cmd.app.ecs.nextEntityId()
	cmd.app.pendingAdditions = append(cmd.app.pendingAdditions, pendingAdd{
		eid:        eid,
		components: components,
	})
	return eid
}

func (cmd *Commands) AddComponents(entityId EntityId, components ...any) {
	cmd.app.pendingCompAdds = append(cmd.app.pendingCompAdds, pendingCompAdd{
		eid:        entityId,
		components: components,
	})
}

func (cmd *Commands) RemoveEntity(entityId EntityId) {
	cmd.app.pendingRemovals = append(cmd.app.pendingRemovals, entityId)
}

// HasEntity reports whether the entity exists in the flushed world.
func (cmd *Commands) HasEntity(entityId EntityId) bool {
	return cmd.app.ecs.hasEntity(entityId)
}

// GetComponent returns the entity's component of type T, or nil.
func GetComponent[T any](cmd *Commands, entityId EntityId) *T {
	return componentOf[T](cmd.app.ecs, entityId)
}
