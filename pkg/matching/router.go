package matching

import (
	"context"
	"sync/atomic"

	"github.com/joripage/go_util/pkg/shardqueue"
	"github.com/joripage/matching-engine/pkg/matching/model"
	"go.uber.org/zap"
)

type Executor interface {
	Execute(ctx context.Context, cmd *model.Command) (*model.SubmitResult, error)
	// ResolveSymbol names the symbol cmd must be serialised on.
	ResolveSymbol(cmd *model.Command) (string, error)
}

// Router serialises commands per symbol on a shard queue so different
// symbols run in parallel while one symbol sees its commands in order.
type Router struct {
	exec    Executor
	queue   *shardqueue.Shardqueue
	stopped atomic.Bool
	logger  *zap.Logger
}

type routedCommand struct {
	ctx  context.Context
	cmd  *model.Command
	done func(*model.SubmitResult, error)
}

func NewRouter(exec Executor, numShards, queueSize int, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		exec:   exec,
		queue:  shardqueue.NewShardQueue(numShards, queueSize),
		logger: logger,
	}
	r.queue.Start(func(msg interface{}) error {
		job, ok := msg.(*routedCommand)
		if !ok {
			return nil
		}
		res, err := r.exec.Execute(job.ctx, job.cmd)
		if err != nil {
			r.logger.Debug("command failed",
				zap.String("action", string(job.cmd.Action)),
				zap.String("symbol", job.cmd.Symbol()),
				zap.Error(err),
			)
		}
		if job.done != nil {
			job.done(res, err)
		}
		return nil
	})
	return r
}

// Dispatch queues cmd behind earlier commands of the same symbol. done, if
// set, runs on the shard goroutine once the command completes, or on the
// caller's goroutine when cmd is refused before queueing.
func (r *Router) Dispatch(ctx context.Context, cmd *model.Command, done func(*model.SubmitResult, error)) {
	fail := func(err error) {
		if done != nil {
			done(nil, err)
		}
	}
	if r.stopped.Load() {
		fail(ErrRouterStopped)
		return
	}

	// amend and cancel may name only the order; they still queue on its symbol
	symbol, err := r.exec.ResolveSymbol(cmd)
	if err != nil {
		fail(err)
		return
	}
	cmd.SetSymbol(symbol)
	r.queue.Shard(symbol, &routedCommand{ctx: ctx, cmd: cmd, done: done})
}

// Execute dispatches cmd and waits for its result.
func (r *Router) Execute(ctx context.Context, cmd *model.Command) (*model.SubmitResult, error) {
	type result struct {
		res *model.SubmitResult
		err error
	}
	ch := make(chan result, 1)
	r.Dispatch(ctx, cmd, func(res *model.SubmitResult, err error) {
		ch <- result{res, err}
	})

	select {
	case out := <-ch:
		return out.res, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop rejects further commands. Queued commands still run.
func (r *Router) Stop() {
	r.stopped.Store(true)
}
