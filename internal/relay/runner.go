// internal/relay/runner.go
package relay

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultQueue is the command channel capacity when none is configured.
const DefaultQueue = 16

// NewCommandChannel creates the bounded FIFO between the dispatcher and
// the runner. A full channel suspends the sender.
func NewCommandChannel(capacity int) chan Command {
	if capacity <= 0 {
		capacity = DefaultQueue
	}
	return make(chan Command, capacity)
}

// Output receives every logical state the engine produces.
// Translation to banks/bits happens behind it.
type Output interface {
	Set(ctx context.Context, num int, st State) error
}

// Observer is notified after each output write attempt.
// err is the output error, nil on success.
type Observer interface {
	Applied(num int, st State, pending bool, err error)
}

// Runner is the engine's control loop.
// It is the only goroutine touching the engine.
type Runner struct {
	engine   *Engine
	commands <-chan Command
	out      Output
	observer Observer
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewRunner wires an engine to its command channel and output.
func NewRunner(engine *Engine, commands <-chan Command, out Output, log logrus.FieldLogger) *Runner {
	return &Runner{
		engine:   engine,
		commands: commands,
		out:      out,
		log:      log,
		now:      time.Now,
	}
}

// SetObserver registers an optional observer. Call before Run.
func (r *Runner) SetObserver(o Observer) {
	r.observer = o
}

// Run applies expired schedules, then waits for whichever comes first:
// the next command or the next deadline. The timer only wakes the loop;
// reverts are applied by the following PollExpired.
// Returns when ctx is done or the command channel is closed.
func (r *Runner) Run(ctx context.Context) error {
	for {
		now := r.now()

		for _, e := range r.engine.PollExpired(now) {
			r.log.WithFields(logrus.Fields{"relay": e.Num, "state": e.State}).Debug("revert")
			r.apply(ctx, e.Num, e.State)
		}

		timer := time.NewTimer(r.engine.NextTimeout(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()

		case cmd, ok := <-r.commands:
			timer.Stop()
			if !ok {
				return nil
			}
			r.handle(ctx, cmd)

		case <-timer.C:
		}
	}
}

func (r *Runner) handle(ctx context.Context, cmd Command) {
	num := int(cmd.Num)
	if num >= r.engine.Capacity() {
		r.log.WithField("relay", num).Debug("relay number out of range, dropped")
		return
	}
	if r.engine.ApplyCommand(num, cmd.State, cmd.Duration(), r.now()) {
		r.apply(ctx, num, cmd.State)
	}
}

func (r *Runner) apply(ctx context.Context, num int, st State) {
	err := r.out.Set(ctx, num, st)
	if err != nil {
		r.log.WithFields(logrus.Fields{"relay": num, "state": st}).WithError(err).Warn("output write failed")
	}
	if r.observer != nil {
		_, pending := r.engine.Deadline(num)
		r.observer.Applied(num, st, pending, err)
	}
}
