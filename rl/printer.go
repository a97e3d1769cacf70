package rl

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// TerminalPrinter redraws the status line of every output in place
type TerminalPrinter struct {
	outputs       []*Output
	ctx           context.Context
	printerCtx    context.Context
	printerCancel context.CancelFunc
	interval      time.Duration
	done          chan struct{}

	writer  *uilive.Writer
	writers []io.Writer
}

func NewTerminalPrinter(ctx context.Context, out io.Writer, outputs []*Output, interval time.Duration) *TerminalPrinter {
	printerCtx, cancel := context.WithCancel(ctx)
	writer := uilive.New()
	if out != nil {
		writer.Out = out
	}
	writers := make([]io.Writer, 0, len(outputs))
	for i := 0; i < len(outputs)-1; i++ {
		writers = append(writers, writer.Newline())
	}

	return &TerminalPrinter{
		outputs:       outputs,
		ctx:           ctx,
		printerCtx:    printerCtx,
		printerCancel: cancel,
		interval:      interval,
		done:          make(chan struct{}),

		writer:  writer,
		writers: writers,
	}
}

func (p *TerminalPrinter) Start() {
	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.printerCtx.Done():
				p.print()
				return
			case <-p.ctx.Done():
				return
			case <-time.After(p.interval):
				p.print()
			}
		}
	}()
}

// Stop prints the final status and waits for the printer to exit
func (p *TerminalPrinter) Stop() {
	p.printerCancel()
	<-p.done
}

func (p *TerminalPrinter) print() {
	for i, output := range p.outputs {
		s := output.Get()
		if i == 0 {
			fmt.Fprint(p.writer, s+"\n")
		} else {
			fmt.Fprint(p.writers[i-1], s+"\n")
		}
	}
	p.writer.Flush()
}

// Output is the status line of a running experiment
type Output struct {
	mu        sync.Mutex
	printable string
}

func NewOutput() *Output {
	return &Output{}
}

func (o *Output) Set(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.printable = s
}

func (o *Output) Get() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.printable
}
