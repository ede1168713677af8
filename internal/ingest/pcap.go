package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// ReplayOptions controls a pcap replay.
type ReplayOptions struct {
	// Port keeps only UDP datagrams to this destination port. Zero keeps all.
	Port int

	// Realtime sleeps between datagrams to reproduce the capture timing.
	Realtime bool

	// Speed scales realtime pacing; 2 replays twice as fast. Defaults to 1.
	Speed float64
}

// ReplayStats summarizes a replay.
type ReplayStats struct {
	Packets    int
	Datagrams  int
	Dispatched int
	Rejected   int
}

// ReplayPCAPFile replays the capture at path.
func ReplayPCAPFile(ctx context.Context, path string, opts ReplayOptions, d *Dispatcher) (ReplayStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return ReplayStats{}, fmt.Errorf("failed to open PCAP file %s: %w", path, err)
	}
	defer f.Close()
	return ReplayPCAP(ctx, f, opts, d)
}

// ReplayPCAP reads a capture and dispatches the payload of every matching
// UDP datagram. It returns at end of capture or when ctx is cancelled.
func ReplayPCAP(ctx context.Context, r io.Reader, opts ReplayOptions, d *Dispatcher) (ReplayStats, error) {
	var stats ReplayStats
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return stats, fmt.Errorf("failed to read PCAP header: %w", err)
	}
	speed := opts.Speed
	if speed <= 0 {
		speed = 1
	}
	if opts.Port > 0 {
		logf("PCAP replay filtering udp port %d", opts.Port)
	}

	source := gopacket.NewPacketSource(reader, reader.LinkType())
	source.NoCopy = true
	startTime := time.Now()
	var firstStamp time.Time

	for {
		packet, err := source.NextPacket()
		if err == io.EOF {
			logf("PCAP replay complete: %s packets, %s dispatched in %v",
				humanize.Comma(int64(stats.Packets)), humanize.Comma(int64(stats.Dispatched)), time.Since(startTime))
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read packet %d: %w", stats.Packets+1, err)
		}
		stats.Packets++

		udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
		if !ok || len(udp.Payload) == 0 {
			continue
		}
		if opts.Port > 0 && int(udp.DstPort) != opts.Port {
			continue
		}
		stats.Datagrams++

		if opts.Realtime {
			stamp := packet.Metadata().Timestamp
			if firstStamp.IsZero() {
				firstStamp = stamp
			}
			due := time.Duration(float64(stamp.Sub(firstStamp)) / speed)
			if err := sleepUntil(ctx, startTime.Add(due)); err != nil {
				return stats, err
			}
		} else if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		if err := d.Dispatch(udp.Payload); err != nil {
			stats.Rejected++
			logf("PCAP packet %d rejected: %v", stats.Packets, err)
			continue
		}
		stats.Dispatched++
	}
}

func sleepUntil(ctx context.Context, t time.Time) error {
	wait := time.Until(t)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
