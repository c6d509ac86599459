package agent

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/bedrockagentruntime"
)

const (
	fileSourceByteContent = "BYTE_CONTENT"
	fileUseCaseChat       = "CHAT"
)

type BedrockConfig struct {
	AgentID string
	AliasID string
	Region  string
}

type invokeAgentAPI interface {
	InvokeAgentWithContext(aws.Context, *bedrockagentruntime.InvokeAgentInput, ...request.Option) (*bedrockagentruntime.InvokeAgentOutput, error)
}

// eventSource is the subset of *bedrockagentruntime.InvokeAgentEventStream we read from.
type eventSource interface {
	Events() <-chan bedrockagentruntime.ResponseStreamEvent
	Close() error
	Err() error
}

// BedrockTransport talks to an AWS Bedrock agent alias over InvokeAgent.
type BedrockTransport struct {
	api     invokeAgentAPI
	agentID string
	aliasID string
}

func NewBedrockTransport(cfg BedrockConfig) (*BedrockTransport, error) {
	if cfg.AgentID == "" || cfg.AliasID == "" {
		return nil, fmt.Errorf("bedrock: agent id and alias id are required")
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("bedrock: create session: %w", err)
	}
	return &BedrockTransport{
		api:     bedrockagentruntime.New(sess),
		agentID: cfg.AgentID,
		aliasID: cfg.AliasID,
	}, nil
}

func (t *BedrockTransport) Open(ctx context.Context, in Input) (ChunkStream, error) {
	out, err := t.api.InvokeAgentWithContext(ctx, t.buildInput(in))
	if err != nil {
		return nil, err
	}
	stream := out.GetStream()
	if stream == nil {
		return nil, fmt.Errorf("bedrock: response carried no event stream")
	}
	return newBedrockStream(stream), nil
}

func (t *BedrockTransport) buildInput(in Input) *bedrockagentruntime.InvokeAgentInput {
	input := &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(t.agentID),
		AgentAliasId: aws.String(t.aliasID),
		SessionId:    aws.String(in.SessionID),
		InputText:    aws.String(in.Prompt),
	}
	if att := in.Attachment; att != nil {
		input.SessionState = &bedrockagentruntime.SessionState{
			Files: []*bedrockagentruntime.InputFile{{
				Name: aws.String(att.Name),
				Source: &bedrockagentruntime.FileSource{
					SourceType: aws.String(fileSourceByteContent),
					ByteContent: &bedrockagentruntime.ByteContentFile{
						Data:      att.Data,
						MediaType: aws.String(att.MediaType),
					},
				},
				UseCase: aws.String(fileUseCaseChat),
			}},
		}
	}
	return input
}

type bedrockStream struct {
	src    eventSource
	events <-chan bedrockagentruntime.ResponseStreamEvent
}

func newBedrockStream(src eventSource) *bedrockStream {
	return &bedrockStream{src: src, events: src.Events()}
}

// Next returns the next payload chunk. Trace and control events are skipped.
func (s *bedrockStream) Next(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-s.events:
			if !ok {
				if err := s.src.Err(); err != nil {
					return nil, err
				}
				return nil, io.EOF
			}
			if part, isPayload := ev.(*bedrockagentruntime.PayloadPart); isPayload {
				return part.Bytes, nil
			}
		}
	}
}

func (s *bedrockStream) Close() error {
	return s.src.Close()
}
