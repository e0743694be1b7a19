package queue

// Storage combines every repository interface the queue components need,
// so a single backend (MemoryStorage, PGStorage) can serve the whole Service.
type Storage interface {
	EnqueuerRepository
	WorkerRepository
	SchedulerRepository
	Canceler
}

var (
	_ Storage = (*MemoryStorage)(nil)
	_ Storage = (*PGStorage)(nil)
)
