package adapter

import (
	"io"
	"sync"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

// WriterChannel is an output channel appending to a writer.
type WriterChannel struct {
	mu sync.Mutex
	w  io.Writer
}

func NewWriterChannel(w io.Writer) *WriterChannel {
	return &WriterChannel{w: w}
}

func (c *WriterChannel) Append(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.w, text)
}

// channelWriter forwards worker output verbatim.
type channelWriter struct {
	channel testapi.OutputChannel
}

func (cw channelWriter) Write(p []byte) (int, error) {
	if cw.channel != nil {
		cw.channel.Append(string(p))
	}
	return len(p), nil
}
