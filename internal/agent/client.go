package agent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Config struct {
	// Timeout bounds one invocation including the full stream read. Zero disables it.
	Timeout time.Duration
}

// Client turns a chunked agent stream into one completion string.
// It never retries; callers own the retry policy.
type Client struct {
	transport    Transport
	cfg          Config
	log          *slog.Logger
	newSessionID func() string
}

func NewClient(transport Transport, cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		transport:    transport,
		cfg:          cfg,
		log:          logger,
		newSessionID: uuid.NewString,
	}
}

// Invoke opens a fresh session, sends prompt (and att, when non-nil) and returns the
// concatenated response text once the stream ends.
func (c *Client) Invoke(ctx context.Context, prompt string, att *Attachment) (string, error) {
	sid := c.newSessionID()
	start := time.Now()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	attrs := []any{"session_id", sid, "prompt_len", len(prompt), "has_attachment", att != nil}
	if att != nil {
		attrs = append(attrs, "attachment_bytes", len(att.Data), "media_type", att.MediaType)
	}
	c.log.Info("agent.invoke.start", attrs...)

	stream, err := c.transport.Open(ctx, Input{SessionID: sid, Prompt: prompt, Attachment: att})
	if err != nil {
		return "", c.fail(sid, "open", err, start)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			c.log.Warn("agent stream close error", "session_id", sid, "error", err)
		}
	}()

	var buf bytes.Buffer
	chunks := 0
	for {
		chunk, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", c.fail(sid, "stream", err, start)
		}
		buf.Write(chunk)
		chunks++
	}

	// Decode once at the end; a rune split across chunks is whole again here.
	text := strings.ToValidUTF8(buf.String(), "�")

	c.log.Info("agent.invoke.ok",
		"session_id", sid,
		"chunks", chunks,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (c *Client) fail(sid, stage string, err error, start time.Time) error {
	c.log.Error("agent.invoke.error",
		"session_id", sid,
		"stage", stage,
		"error", err,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &InvocationError{SessionID: sid, Stage: stage, Err: err}
}
