// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package ingest reads newline-delimited rsyslog JSON from an input stream
// and inserts the normalized events into the partitioned logs table. It
// speaks the omprog confirmMessages protocol: one OK line when ready, one OK
// line per stored event, nothing else on stdout.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/elastic/loghaven/internal/event"
)

// Writer stores one normalized event.
type Writer interface {
	Insert(ctx context.Context, ev *event.Event) error
}

// Pipeline is the ingest loop.
type Pipeline struct {
	In          io.Reader
	Out         io.Writer
	Writer      Writer
	SwapVarsMsg bool
	Logger      *zap.Logger
}

// Run consumes the input until EOF. Malformed lines are logged and skipped;
// insert failures abort the loop so the daemon can requeue its messages.
func (p *Pipeline) Run(ctx context.Context) error {
	// Readiness handshake.
	if err := p.ack(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(p.In)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var raw event.Raw
		if err := json.Unmarshal(line, &raw); err != nil {
			p.Logger.Error("could not parse event",
				zap.ByteString("line", line), zap.Error(err))
			continue
		}
		ev, err := event.FromRaw(&raw)
		if err != nil {
			p.Logger.Error("could not normalize event",
				zap.ByteString("line", line), zap.Error(err))
			continue
		}
		if p.SwapVarsMsg {
			ev = ev.SwapVarsMsg()
		}

		if err := p.Writer.Insert(ctx, ev); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		if err := p.ack(); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	p.Logger.Info("input at EOF")
	return nil
}

func (p *Pipeline) ack() error {
	if _, err := io.WriteString(p.Out, "OK\n"); err != nil {
		return fmt.Errorf("write ack: %w", err)
	}
	return nil
}
