package task

import (
	"github.com/google/uuid"
)

// GenerationTaskFactory builds generation tasks from job IDs. One
// factory is created at startup with the full dependency set and
// shared by the event handler and the runner's recovery paths.
type GenerationTaskFactory struct {
	deps GenerationTaskDeps
}

var _ Factory = (*GenerationTaskFactory)(nil)

// NewGenerationTaskFactory creates a factory over the given
// dependencies.
func NewGenerationTaskFactory(deps GenerationTaskDeps) *GenerationTaskFactory {
	return &GenerationTaskFactory{deps: deps}
}

// CreateTask implements Factory.
func (f *GenerationTaskFactory) CreateTask(jobID uuid.UUID) (Task, error) {
	return NewGenerationTask(jobID, f.deps), nil
}
