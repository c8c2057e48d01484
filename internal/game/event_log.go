package game

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"survivor/internal/game/spatial"
)

const (
	EventBufferSize    = 1024                   // Ring capacity
	MaxEventsPerSec    = 10000                  // Global rate limit
	MaxEventsPerSource = 2000                   // Per-component rate limit per second
	BatchFlushSize     = 64                     // Events per batch write
	BatchFlushInterval = 100 * time.Millisecond // How often to flush
)

// EventLog is a bounded, rate-limited JSONL event sink. Emit never blocks
// the tick: events that do not fit are counted and dropped.
type EventLog struct {
	buffer *spatial.Queue[Event]

	globalLimiter  *rate.Limiter
	sourceLimiters sync.Map // map[string]*rate.Limiter

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	file   *os.File
	fileMu sync.Mutex

	sequence     atomic.Uint64
	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
	writtenCount atomic.Uint64
}

// NewEventLog creates a new bounded event log
func NewEventLog() *EventLog {
	return &EventLog{
		buffer:        spatial.NewQueue[Event](EventBufferSize),
		globalLimiter: rate.NewLimiter(MaxEventsPerSec, MaxEventsPerSec/10),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the async writer. An empty path keeps the log running but
// discards flushed events.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		el.file = file
	}

	el.running.Store(true)
	el.writerWg.Add(1)
	go el.writerLoop()

	return nil
}

// Stop flushes pending events and closes the file.
func (el *EventLog) Stop() {
	if !el.running.Load() {
		return
	}
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		el.fileMu.Lock()
		if el.file != nil {
			el.file.Close()
			el.file = nil
		}
		el.fileMu.Unlock()
	})
}

// Emit queues an event. Returns false if rate limited, full or stopped.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}

	if !el.globalLimiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}
	if event.Source != "" && !el.sourceLimiter(event.Source).Allow() {
		el.droppedCount.Add(1)
		return false
	}

	event.Sequence = el.sequence.Add(1)
	if !el.buffer.TryPush(event) {
		el.droppedCount.Add(1)
		return false
	}
	el.totalCount.Add(1)
	return true
}

// EmitSimple builds and emits an event.
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, matchID, source string, payload any) bool {
	if !el.running.Load() {
		return false
	}
	return el.Emit(NewEvent(eventType, tickNum, matchID, source, payload))
}

func (el *EventLog) sourceLimiter(source string) *rate.Limiter {
	if l, ok := el.sourceLimiters.Load(source); ok {
		return l.(*rate.Limiter)
	}
	l, _ := el.sourceLimiters.LoadOrStore(source, rate.NewLimiter(MaxEventsPerSource, MaxEventsPerSource/10))
	return l.(*rate.Limiter)
}

func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, BatchFlushSize)

	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					return
				}
				el.flushBatch(batch)
			}

		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(batch)
			}
		}
	}
}

func (el *EventLog) collectBatch(batch []Event) []Event {
	for len(batch) < BatchFlushSize {
		ev, ok := el.buffer.TryPop()
		if !ok {
			break
		}
		batch = append(batch, ev)
	}
	return batch
}

// flushBatch appends events as newline-delimited JSON.
func (el *EventLog) flushBatch(batch []Event) {
	el.fileMu.Lock()
	defer el.fileMu.Unlock()

	el.writtenCount.Add(uint64(len(batch)))
	if el.file == nil {
		return
	}

	w := bufio.NewWriter(el.file)
	enc := json.NewEncoder(w)
	for _, event := range batch {
		if err := enc.Encode(event); err != nil {
			continue
		}
	}
	w.Flush()
}

// EventLogStats is a monitoring snapshot.
type EventLogStats struct {
	Total   uint64 `json:"total" msgpack:"total"`
	Dropped uint64 `json:"dropped" msgpack:"dropped"`
	Written uint64 `json:"written" msgpack:"written"`
	Pending int    `json:"pending" msgpack:"pending"`
	Running bool   `json:"running" msgpack:"running"`
}

// Stats returns counters for monitoring.
func (el *EventLog) Stats() EventLogStats {
	return EventLogStats{
		Total:   el.totalCount.Load(),
		Dropped: el.droppedCount.Load(),
		Written: el.writtenCount.Load(),
		Pending: el.buffer.Len(),
		Running: el.running.Load(),
	}
}
