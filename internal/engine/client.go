package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Client sends typed requests to a Worker and waits for the replies.
type Client struct {
	worker *Worker
}

// NewClient creates a client for worker.
func NewClient(worker *Worker) *Client {
	return &Client{worker: worker}
}

// Call queues req and waits for its response. A missing MessageID is filled
// in. Cancelling ctx abandons the wait; the worker still runs the request.
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.MessageID == "" {
		req.MessageID = uuid.New().String()
	}
	req.DepartureTime = time.Now()

	env := &envelope{req: req, reply: make(chan *Response, 1)}
	if err := c.worker.submit(env); err != nil {
		return nil, err
	}

	select {
	case resp := <-env.reply:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.worker.done:
		// A reply may have landed just before shutdown.
		select {
		case resp := <-env.reply:
			return resp, nil
		default:
			return nil, ErrStopped
		}
	}
}

// ConfigGet asks the worker to describe the engine.
func (c *Client) ConfigGet(ctx context.Context) (*ConfigResult, error) {
	resp, err := c.Call(ctx, Request{Type: TypeConfigGet})
	return result[*ConfigResult](resp, err)
}

// Open opens filename (":memory:" when empty).
func (c *Client) Open(ctx context.Context, filename string) (*OpenResult, error) {
	resp, err := c.Call(ctx, Request{Type: TypeOpen, Args: OpenArgs{Filename: filename}})
	return result[*OpenResult](resp, err)
}

// Exec runs one statement against the database named id.
func (c *Client) Exec(ctx context.Context, id DBID, args ExecArgs) (*ExecResult, error) {
	resp, err := c.Call(ctx, Request{Type: TypeExec, DBID: id, Args: args})
	return result[*ExecResult](resp, err)
}

// Close closes the database named id.
func (c *Client) Close(ctx context.Context, id DBID) error {
	resp, err := c.Call(ctx, Request{Type: TypeClose, DBID: id})
	_, err = result[*CloseResult](resp, err)
	return err
}

// result converts a TypeError response into a *ResponseError and asserts
// the success payload.
func result[T any](resp *Response, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if resp.Type == TypeError {
		if er, ok := resp.Result.(ErrorResult); ok {
			return zero, &ResponseError{
				Operation: er.Operation,
				Message:   er.Message,
				Input:     er.Input,
				MessageID: resp.MessageID,
			}
		}
		return zero, &ResponseError{Operation: TypeError, Message: "malformed error response", MessageID: resp.MessageID}
	}
	v, ok := resp.Result.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected %s result of type %T", resp.Type, resp.Result)
	}
	return v, nil
}
