package tasks

// TaskSchedulerInterface is what the API needs to trigger background work.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueIngest(trigger Trigger) (string, error)
}
