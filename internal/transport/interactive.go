package transport

import (
	"context"
	"log/slog"
)

// Prompter asks the operator for another host after a failed attempt. It returns
// ok=false when the operator gives up.
type Prompter interface {
	PromptHost(ctx context.Context, suggestion string, lastErr error) (host string, ok bool, err error)
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, suggestion string, lastErr error) (string, bool, error)

func (f PrompterFunc) PromptHost(ctx context.Context, suggestion string, lastErr error) (string, bool, error) {
	return f(ctx, suggestion, lastErr)
}

// ConnectInteractive tries initial once, then keeps asking the prompter for a host
// until a connect succeeds or the operator cancels. There is no backoff: every retry
// is driven by the operator. It returns the host that connected and whether that host
// came from the prompt.
func ConnectInteractive(ctx context.Context, c *Client, p Prompter, initial, suggestion string) (host string, prompted bool, err error) {
	lastErr := c.Connect(ctx, initial)
	if lastErr == nil {
		return initial, false, nil
	}
	if suggestion == "" {
		suggestion = initial
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", true, err
		}

		entered, ok, err := p.PromptHost(ctx, suggestion, lastErr)
		if err != nil {
			return "", true, err
		}
		if !ok {
			c.logger.Warn("visualizer_connect_abandoned",
				"last_error", lastErr.Error(),
			)
			return "", true, ErrAbandoned
		}

		if lastErr = c.Connect(ctx, entered); lastErr == nil {
			c.logger.Info("visualizer_connect_prompted",
				slog.String("host", entered),
			)
			return entered, true, nil
		}
		suggestion = entered
	}
}
