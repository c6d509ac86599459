package agent

import (
	"context"
	"fmt"
)

// Attachment is a single binary file handed to the agent alongside the prompt.
type Attachment struct {
	Name      string
	MediaType string
	Data      []byte
}

// Input is one agent invocation as seen by a Transport.
type Input struct {
	SessionID  string
	Prompt     string
	Attachment *Attachment
}

// ChunkStream yields response chunks in arrival order. Next returns io.EOF once the
// stream has ended normally. Chunk boundaries carry no meaning and may split a rune.
type ChunkStream interface {
	Next(ctx context.Context) ([]byte, error)
	Close() error
}

// Transport opens a streaming conversation with a remote agent.
type Transport interface {
	Open(ctx context.Context, in Input) (ChunkStream, error)
}

// Invoker is what the extraction pipeline and recipe workflow depend on.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, att *Attachment) (string, error)
}

// InvocationError is returned for every transport-level failure of a single call:
// open errors, mid-stream errors, cancellation and deadline expiry.
type InvocationError struct {
	SessionID string
	Stage     string // open | stream
	Err       error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("agent invocation failed (session %s, %s): %v", e.SessionID, e.Stage, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
