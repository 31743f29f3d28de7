package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"
)

func TestTCPTransportReadsUntilPeerCloses(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Write([]byte("{\"Brightness\":1}\n"))
		_ = conn.Close()
	}()

	host, portRaw, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portRaw)
	tr := NewTCPTransport(host, port)
	if tr.StatusTarget() != ln.Addr().String() {
		t.Fatalf("unexpected status target %q", tr.StatusTarget())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tr.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = tr.Close() })

	var framer LineFramer
	var lines []string
	for {
		chunk, err := tr.ReadChunk(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("read chunk: %v", err)
		}
		lines = append(lines, framer.Push(chunk)...)
	}
	if len(lines) != 1 || lines[0] != "{\"Brightness\":1}" {
		t.Fatalf("unexpected lines: %q", lines)
	}
}

func TestTCPTransportRequiresHost(t *testing.T) {
	tr := NewTCPTransport("", 0)
	if err := tr.Connect(context.Background()); err == nil {
		t.Fatalf("expected error for empty host")
	}
	if _, err := tr.ReadChunk(context.Background()); !errors.Is(err, errNotConnected) {
		t.Fatalf("expected not connected error, got %v", err)
	}
}
