package events

import (
	"context"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/classanalyser/pkg/commsutil"
)

const commsPublisherLogPrefix = "events:comms_publisher"

// CommsPublisher publishes the analyser's compilingClass/compiledClass/
// saveDatabase events to COMMS subjects so external tools (a watch-mode
// dev server, a bundler) can react without linking against the analyser.
type CommsPublisher struct {
	nc *comms.Conn
}

// NewCommsPublisher creates a new CommsPublisher.
func NewCommsPublisher(nc *comms.Conn) *CommsPublisher {
	return &CommsPublisher{nc: nc}
}

func (p *CommsPublisher) PublishCompiling(_ context.Context, event *CompilingClassEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode compilingClass event: %w", commsPublisherLogPrefix, err)
	}
	subject := commsutil.BuildCompilingSubject(event.ClassName)
	if err := p.nc.Publish(subject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, subject, err))
		return err
	}
	return nil
}

func (p *CommsPublisher) PublishCompiled(_ context.Context, event *CompiledClassEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode compiledClass event: %w", commsPublisherLogPrefix, err)
	}
	subject := commsutil.BuildCompiledSubject(event.ClassName)
	if err := p.nc.Publish(subject, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, subject, err))
		return err
	}
	slog.Debug(fmt.Sprintf("%s - Published compiledClass for %s", commsPublisherLogPrefix, event.ClassName))
	return nil
}

func (p *CommsPublisher) PublishSaveDatabase(_ context.Context, event *SaveDatabaseEvent) error {
	data, err := commsutil.EncodePayload(event)
	if err != nil {
		return fmt.Errorf("%s - failed to encode saveDatabase event: %w", commsPublisherLogPrefix, err)
	}
	if err := p.nc.Publish(commsutil.SubjectSaveDbEvent, data); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish to %s: %v", commsPublisherLogPrefix, commsutil.SubjectSaveDbEvent, err))
		return err
	}
	return nil
}
