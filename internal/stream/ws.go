package stream

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"nhooyr.io/websocket"
)

const (
	defaultDialTimeout     = 15 * time.Second
	defaultMaxMessageBytes = 1 << 20
)

// Handler receives every decoded push message. It runs on the read loop
// goroutine and must not block for long.
type Handler func(Message)

type WSClientOptions struct {
	URL             string
	MaxMessageBytes int64
	Handler         Handler
	Logf            func(format string, args ...any)
}

// WSClient maintains one long-lived subscription to the backend's push
// channel, reconnecting with exponential backoff when the connection drops.
type WSClient struct {
	url             string
	maxMessageBytes int64
	handler         Handler
	logf            func(format string, args ...any)
}

func NewWSClient(opts WSClientOptions) (*WSClient, error) {
	url := strings.TrimSpace(opts.URL)
	if url == "" {
		return nil, errors.New("ws url is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("handler is required")
	}
	maxMsg := opts.MaxMessageBytes
	if maxMsg <= 0 {
		maxMsg = defaultMaxMessageBytes
	}
	logf := opts.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &WSClient{
		url:             url,
		maxMessageBytes: maxMsg,
		handler:         opts.Handler,
		logf:            logf,
	}, nil
}

// Run blocks until ctx is done, redialing on failure. Each message is decoded
// and handed to the handler; undecodable frames are skipped.
func (c *WSClient) Run(ctx context.Context) error {
	if c == nil {
		return errors.New("ws client is nil")
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = 30 * time.Second
	bo.MaxElapsedTime = 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.runOnce(ctx, bo)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		c.logf("stream: disconnected url=%s err=%v", c.url, err)

		timer := time.NewTimer(bo.NextBackOff())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *WSClient) runOnce(ctx context.Context, bo *backoff.ExponentialBackOff) error {
	dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, c.url, nil)
	if err != nil {
		return err
	}
	conn.SetReadLimit(c.maxMessageBytes)
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	c.logf("stream: connected url=%s", c.url)
	bo.Reset()

	for {
		mt, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if mt != websocket.MessageText {
			continue
		}
		msg, err := Decode(data)
		if err != nil {
			continue
		}
		c.handler(msg)
	}
}
