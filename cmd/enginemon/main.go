// enginemon prints the engine's outbound OSC events as they arrive. Useful
// for checking the engine's addressing and beat numbering before pointing
// the main app at it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-segue/engine"
)

type printer struct {
	start time.Time
}

func (p *printer) stamp() string {
	return fmt.Sprintf("%8.3fs", time.Since(p.start).Seconds())
}

func (p *printer) HandleTransportState(playing bool) {
	fmt.Printf("%s  transport playing=%v\n", p.stamp(), playing)
}

func (p *printer) HandleBeat(beat int) {
	fmt.Printf("%s  beat %d\n", p.stamp(), beat)
}

func (p *printer) HandlePreRoll() {
	fmt.Printf("%s  pre-roll\n", p.stamp())
}

func (p *printer) HandleTempoEcho(bpm float64) {
	fmt.Printf("%s  tempo %.1f\n", p.stamp(), bpm)
}

func main() {
	host := flag.String("host", "127.0.0.1", "address to listen on")
	port := flag.Int("port", 9002, "UDP port the engine sends to")
	instance := flag.Int("instance", 0, "RNBO instance index")
	flag.Parse()

	server, err := engine.NewServer(*host, *port, *instance, &printer{start: time.Now()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	fmt.Printf("listening on %s:%d (instance %d), ctrl-c to quit\n", *host, *port, *instance)
	if err := server.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "serve: %v\n", err)
		os.Exit(1)
	}
}
