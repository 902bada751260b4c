// Package alerts fires start-of-task notifications for pending tasks.
package alerts

import (
	"container/heap"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

var ErrStopped = errors.New("alerts: dispatcher stopped")

// Alert is emitted on C when At has passed.
type Alert struct {
	TaskID string
	Title  string
	At     time.Time
}

type alertQueue []Alert

func (q alertQueue) Len() int { return len(q) }

func (q alertQueue) Less(i, j int) bool {
	if q[i].At.Equal(q[j].At) {
		return q[i].TaskID < q[j].TaskID
	}
	return q[i].At.Before(q[j].At)
}

func (q alertQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *alertQueue) Push(x any) {
	*q = append(*q, x.(Alert))
}

func (q *alertQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[0 : n-1]
	return item
}

type Dispatcher struct {
	mu      sync.Mutex
	queue   alertQueue
	out     chan Alert
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
	logger  *log.Logger
}

func NewDispatcher(bufferSize int, logger *log.Logger) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Dispatcher{
		queue:  make(alertQueue, 0),
		out:    make(chan Alert, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		logger: logger,
	}
}

// C delivers due alerts. It is closed after Stop.
func (d *Dispatcher) C() <-chan Alert {
	return d.out
}

func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	heap.Init(&d.queue)
	go d.loop()
}

func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.stopCh)
	d.mu.Unlock()
	<-d.doneCh
}

// Reset drops every queued alert and schedules alerts instead. Entries with a
// zero time are skipped.
func (d *Dispatcher) Reset(alerts []Alert) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}

	q := make(alertQueue, 0, len(alerts))
	for _, a := range alerts {
		if a.At.IsZero() {
			continue
		}
		q = append(q, a)
	}
	heap.Init(&q)
	d.queue = q
	d.signalWakeup()
	d.logger.Debug("alerts rescheduled", "count", len(q))
	return nil
}

// Pending returns the number of queued alerts.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Dropped returns how many due alerts were discarded because C was full.
func (d *Dispatcher) Dropped() uint64 {
	return atomic.LoadUint64(&d.dropped)
}

func (d *Dispatcher) loop() {
	defer close(d.doneCh)
	defer close(d.out)

	var timer *time.Timer
	for {
		next, hasNext := d.peek()
		if !hasNext {
			select {
			case <-d.wakeup:
				continue
			case <-d.stopCh:
				return
			}
		}

		wait := time.Until(next.At)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, a := range d.popDue(time.Now()) {
				select {
				case d.out <- a:
				default:
					atomic.AddUint64(&d.dropped, 1)
					d.logger.Warn("alert dropped", "task", a.TaskID)
				}
			}
		case <-d.wakeup:
			continue
		case <-d.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (d *Dispatcher) signalWakeup() {
	select {
	case d.wakeup <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) peek() (Alert, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return Alert{}, false
	}
	return d.queue[0], true
}

func (d *Dispatcher) popDue(now time.Time) []Alert {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Alert, 0)
	for len(d.queue) > 0 {
		if d.queue[0].At.After(now) {
			break
		}
		out = append(out, heap.Pop(&d.queue).(Alert))
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
