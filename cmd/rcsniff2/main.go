// Command rcsniff2 captures live traffic on TCP port 4533, reassembles
// it into the two directional frame formats, classifies and decodes
// each message, and prints the result. Structured the way
// kryptco-kr/src/krd/main.go is structured: one goroutine per concern,
// shut down cleanly on signal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"rcsniff2/capture"
	"rcsniff2/common/classify"
	"rcsniff2/common/frame"
	"rcsniff2/common/log"
	"rcsniff2/common/opcode"
	"rcsniff2/common/queue"
	"rcsniff2/common/wire"
)

const version = "2.0.0"

func main() {
	log.SetupLogging(logging.INFO)

	app := cli.NewApp()
	app.Name = "rcsniff2"
	app.Usage = "passively decode the remote-control protocol carried on TCP/4533"
	app.Version = version
	app.ArgsUsage = "[network interface name]"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "list, l",
			Usage: "List capturable interface names and exit",
		},
	}
	app.Action = runCommand

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, capture.Red(err.Error()))
		os.Exit(1)
	}
}

func runCommand(c *cli.Context) error {
	if c.Bool("list") {
		return printInterfaces()
	}

	ifaceName := c.Args().First()
	if ifaceName == "" {
		name, err := capture.DefaultInterface()
		if err != nil {
			printInterfaces()
			return cli.NewExitError("no interface specified and no default interface could be determined", 1)
		}
		ifaceName = name
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Log.Notice("shutting down")
		cancel()
	}()

	incomingStream, outgoingStream, err := capture.Sniff(ctx, ifaceName)
	if err != nil {
		return err
	}

	registry := wire.NewRegistry()
	classifier := classify.New(registry)

	var wg sync.WaitGroup
	wg.Add(2)
	go runDirection(ctx, &wg, "incoming", classifier, frame.NewIncoming(incomingStream, 0).Next)
	go runDirection(ctx, &wg, "outgoing", classifier, frame.NewOutgoing(outgoingStream, 0).Next)
	wg.Wait()
	return nil
}

// runDirection wires one direction's reassembler and classifier/decoder
// as two independent tasks connected by an unbounded FIFO queue (spec.md
// §5: "three independent tasks per direction... Queues... unbounded
// single-producer single-consumer"). The capture-feeder task already
// runs inside capture.Sniff; this spawns the remaining two.
func runDirection(ctx context.Context, wg *sync.WaitGroup, dir string, classifier *classify.Classifier, next func() ([]byte, error)) {
	defer wg.Done()

	q := queue.NewPayloads()

	go log.RecoverToLog(func() {
		defer q.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			payload, err := next()
			if err != nil {
				if err != io.EOF {
					log.Log.Errorf("%s: %v", dir, err)
				}
				return
			}
			q.Send(payload)
		}
	}, log.Log)

	for {
		payload, ok := q.Recv()
		if !ok {
			return
		}
		log.RecoverToLog(func() {
			msg, ok := classifier.Classify(payload)
			if !ok {
				return
			}
			printMessage(dir, msg)
		}, log.Log)
	}
}

func printMessage(dir string, msg classify.Message) {
	label := capture.Cyan(fmt.Sprintf("[%s]", dir))
	switch msg.Type {
	case opcode.Operation, opcode.InternalOperationRequest:
		fmt.Printf("%s %s %s\n", label, capture.Green("Operation Request:"), msg.Payload)
	case opcode.OperationResponse, opcode.InternalOperationResponse:
		fmt.Printf("%s %s %s\n", label, capture.Green("Operation Response:"), msg.Payload)
	case opcode.EventData:
		fmt.Printf("%s %s %s\n", label, capture.Yellow("Event Data:"), msg.Payload)
	default:
		fmt.Printf("%s %s\n", label, msg.Type)
	}
}

func printInterfaces() error {
	names, err := capture.Interfaces()
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "valid interfaces:")
	for _, n := range names {
		fmt.Fprintf(os.Stderr, "  %s\n", n)
	}
	return nil
}
