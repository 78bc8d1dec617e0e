package app

import "io"

var _ io.Writer = (*ChannelWriter)(nil)

// ChannelWriter forwards each written log line to the UI log channel.
// A full channel drops the line instead of stalling the logger.
type ChannelWriter struct {
	ch chan<- string
}

func NewChannelWriter(ch chan<- string) *ChannelWriter {
	if ch == nil {
		panic("ChannelWriter: channel cannot be nil")
	}
	return &ChannelWriter{ch: ch}
}

func (w *ChannelWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- string(p):
	default:
	}
	return len(p), nil
}
