package matching

import (
	"context"
	"encoding/json"
	"sync"

	kafkawrapper "github.com/joripage/matching-engine/pkg/kafka_wrapper"
	"github.com/joripage/matching-engine/pkg/matching/model"
	"go.uber.org/zap"
)

// CommandConsumer applies order commands read from the command topic.
type CommandConsumer struct {
	group  *kafkawrapper.ConsumerGroup
	router *Router
	logger *zap.Logger
}

func NewCommandConsumer(group *kafkawrapper.ConsumerGroup, router *Router, logger *zap.Logger) *CommandConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandConsumer{group: group, router: router, logger: logger}
}

func (c *CommandConsumer) Run(ctx context.Context) error {
	return c.group.Run(ctx, c.handle)
}

// handle routes a batch and waits for every command, so offsets commit only
// after the batch is applied. Malformed commands are dropped; rejected
// commands are business outcomes and are not retried.
func (c *CommandConsumer) handle(ctx context.Context, msgs []kafkawrapper.Message) error {
	var wg sync.WaitGroup
	for _, m := range msgs {
		var cmd model.Command
		if err := json.Unmarshal(m.Value, &cmd); err != nil {
			c.logger.Error("drop malformed command",
				zap.Int("partition", m.Partition),
				zap.Int64("offset", m.Offset),
				zap.Error(err),
			)
			continue
		}

		wg.Add(1)
		c.router.Dispatch(ctx, &cmd, func(_ *model.SubmitResult, err error) {
			defer wg.Done()
			if err != nil {
				c.logger.Info("command rejected",
					zap.String("action", string(cmd.Action)),
					zap.Int64("offset", m.Offset),
					zap.Error(err),
				)
			}
		})
	}
	wg.Wait()
	return nil
}
