// Command flowpipedemo drives a flowpipe.Pipe with a synthetic producer and
// a hashing consumer and reports whether the bytes that went in match the
// bytes that came out.
package main

import (
	"context"
	"crypto/sha256"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/arfaya/flowpipe"
)

var (
	capacity  = flag.Int("capacity", 4096, "")
	total     = flag.Int("bytes", 1<<20, "")
	chunk     = flag.Int("chunk", 4096, "")
	deadline  = flag.Duration("deadline", 0, "")
	debugLogs = flag.Bool("debug", false, "")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	var opts []flowpipe.Option
	if *debugLogs {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, flowpipe.WithLogger(logger))
	}
	if *deadline > 0 {
		opts = append(opts, flowpipe.WithSourceDeadline(time.Now().Add(*deadline)))
	}

	p := flowpipe.NewPipe(*capacity, opts...)
	sink, source := p.Sink(), p.Source()

	producerHash := make(chan []byte, 1)
	go produce(sink, *total, *chunk, producerHash)

	consumerHash, err := consume(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "consume failed: %v\n", err)
		os.Exit(1)
	}

	want := <-producerHash
	fmt.Printf("producer sha256: %x\n", want)
	fmt.Printf("consumer sha256: %x\n", consumerHash)

	if string(want) != string(consumerHash) {
		fmt.Fprintln(os.Stderr, "mismatch")
		os.Exit(1)
	}
	fmt.Println("ok")
}

func produce(sink *flowpipe.PipeSink, total, chunk int, done chan<- []byte) {
	defer sink.Close()

	h := sha256.New()
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	buf := make([]byte, chunk)

	for written := 0; written < total; {
		n := chunk
		if remaining := total - written; remaining < n {
			n = remaining
		}
		rnd.Read(buf[:n])
		if _, err := sink.Write(context.Background(), buf[:n]); err != nil {
			fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
			done <- nil
			return
		}
		h.Write(buf[:n])
		written += n
	}
	done <- h.Sum(nil)
}

func consume(source *flowpipe.PipeSource) ([]byte, error) {
	h := sha256.New()
	buf := make([]byte, 32*1024)
	for {
		n, err := source.Read(context.Background(), buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return h.Sum(nil), nil
			}
			return nil, err
		}
	}
}
