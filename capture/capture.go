// Package capture opens a live network interface and demultiplexes TCP
// traffic on port 4533 into two directional byte streams, the Go
// analogue of original_source/main.rs's pnet::datalink capture loop and
// its ByteReciever/unbounded-channel plumbing.
package capture

import (
	"context"
	"io"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/pkg/errors"

	"rcsniff2/common/log"
)

// Port is the well-known TCP port this tool watches.
const Port = 4533

const snaplen = 65535

// Interfaces lists capturable interface names, mirroring
// original_source/main.rs's startup banner ("valid interfaces: ...").
func Interfaces() ([]string, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, errors.Wrap(err, "capture: listing interfaces")
	}
	names := make([]string, len(devs))
	for i, d := range devs {
		names[i] = d.Name
	}
	return names, nil
}

// DefaultInterface returns the first non-loopback interface with at
// least one address, approximating the role netdev::get_default_interface
// plays in original_source/main.rs. There's no single stdlib/gopacket
// call that picks "the" default route interface, so this is a best
// effort rather than a routing-table lookup.
func DefaultInterface() (string, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return "", errors.Wrap(err, "capture: listing interfaces")
	}
	for _, d := range devs {
		if len(d.Addresses) == 0 {
			continue
		}
		if d.Flags&pcap.PCAP_IF_LOOPBACK != 0 {
			continue
		}
		return d.Name, nil
	}
	return "", errors.New("capture: no usable non-loopback interface found")
}

// direction is a one-way pipe fed by Sniff's packet loop and drained by
// a frame.Incoming or frame.Outgoing reassembler.
type direction struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func newDirection() direction {
	r, w := io.Pipe()
	return direction{r: r, w: w}
}

// Sniff opens ifaceName in promiscuous mode and returns two io.Readers:
// incoming carries TCP payload bytes sourced from port 4533, outgoing
// carries bytes destined to port 4533 (spec.md §4.2's "Two directional
// byte streams"). Both readers are closed when ctx is canceled.
func Sniff(ctx context.Context, ifaceName string) (incoming, outgoing io.Reader, err error) {
	handle, err := pcap.OpenLive(ifaceName, snaplen, true, pcap.BlockForever)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "capture: opening interface %q", ifaceName)
	}

	in := newDirection()
	out := newDirection()

	go pump(ctx, handle, in.w, out.w)

	go func() {
		<-ctx.Done()
		handle.Close()
		in.w.Close()
		out.w.Close()
	}()

	return in.r, out.r, nil
}

// pump runs the capture loop, writing each TCP segment's payload to the
// matching directional pipe (original_source/main.rs's main loop: unwrap
// Ethernet, then IPv4, then TCP, and route by source/destination port).
func pump(ctx context.Context, handle *pcap.Handle, incoming, outgoing *io.PipeWriter) {
	src := gopacket.NewPacketSource(handle, handle.LinkType())
	packets := src.Packets()
	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-packets:
			if !ok {
				return
			}
			tcpLayer := pkt.Layer(layers.LayerTypeTCP)
			if tcpLayer == nil {
				continue
			}
			tcp, ok := tcpLayer.(*layers.TCP)
			if !ok || len(tcp.Payload) == 0 {
				continue
			}
			if uint16(tcp.SrcPort) == Port {
				if _, err := incoming.Write(tcp.Payload); err != nil {
					log.Log.Warningf("capture: incoming write: %v", err)
				}
			}
			if uint16(tcp.DstPort) == Port {
				if _, err := outgoing.Write(tcp.Payload); err != nil {
					log.Log.Warningf("capture: outgoing write: %v", err)
				}
			}
		}
	}
}
