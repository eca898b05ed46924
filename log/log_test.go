package log_test

import (
	"strings"
	"testing"

	"github.com/grailbio/remoteflow/log"
)

type buffer struct {
	lines []string
}

func (b *buffer) Output(calldepth int, s string) error {
	b.lines = append(b.lines, s)
	return nil
}

func TestLevelFiltering(t *testing.T) {
	var buf buffer
	logger := log.New(&buf, log.ErrorLevel)
	logger.Debug("evaluating Iterate step")
	logger.Error("unbound variable $v_3")
	if len(buf.lines) != 1 {
		t.Fatalf("got %d lines, want 1: %v", len(buf.lines), buf.lines)
	}
	if !strings.Contains(buf.lines[0], "unbound variable") {
		t.Errorf("got %q", buf.lines[0])
	}
}

func TestAt(t *testing.T) {
	logger := log.New(&buffer{}, log.DebugLevel)
	if !logger.At(log.DebugLevel) {
		t.Errorf("expected logger to be at DebugLevel")
	}
	var nilLogger *log.Logger
	if nilLogger.At(log.InfoLevel) {
		t.Errorf("nil logger should never be at any level")
	}
}
