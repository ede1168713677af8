// Command viz-tail subscribes to a running visualizer and prints one line
// per received message.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/banshee-data/drive-visualizer/internal/marker"
	"github.com/banshee-data/drive-visualizer/internal/stream"
	"github.com/banshee-data/drive-visualizer/internal/visualizer"
)

var (
	addr    = flag.String("addr", "localhost:50061", "Visualizer gRPC address")
	topics  = flag.String("topics", "", "Comma-separated topics to follow (default: all)")
	list    = flag.Bool("list", false, "List the available topics and exit")
	count   = flag.Int("n", 0, "Exit after this many messages (0 = unlimited)")
	rawJSON = flag.Bool("json", false, "Print full payloads as JSON")
)

func main() {
	flag.Parse()

	conn, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("failed to create client for %s: %v", *addr, err)
	}
	defer conn.Close()
	client := stream.NewClient(conn)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *list {
		names, err := client.ListTopics(ctx)
		if err != nil {
			log.Fatalf("ListTopics failed: %v", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	sub, err := client.Subscribe(ctx, splitTopics(*topics)...)
	if err != nil {
		log.Fatalf("Subscribe failed: %v", err)
	}

	start := time.Now()
	var received int
	defer func() {
		log.Printf("received %s messages in %s", humanize.Comma(int64(received)), time.Since(start).Round(time.Millisecond))
	}()
	for *count == 0 || received < *count {
		msg, err := sub.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			log.Printf("stream ended: %v", err)
			return
		}
		received++
		if err := printMessage(os.Stdout, msg, *rawJSON); err != nil {
			log.Printf("failed to print %s: %v", msg.Topic, err)
		}
	}
}

func splitTopics(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// summarize describes a payload in a few words. Marker channels report
// their marker count; everything else its field count.
func summarize(msg stream.Message) (string, error) {
	if _, ok := visualizer.ParseChannel(msg.Topic); ok && strings.HasPrefix(msg.Topic, "visualization_") {
		var arr marker.MarkerArray
		if err := msg.Decode(&arr); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d markers", len(arr.Markers)), nil
	}
	return fmt.Sprintf("%d fields", len(msg.Payload.GetFields())), nil
}

func printMessage(w io.Writer, msg stream.Message, full bool) error {
	stamp := time.Unix(0, msg.StampNs).UTC().Format("15:04:05.000")
	if full {
		body, err := protojson.Marshal(msg.Payload)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s #%d %s %s\n", stamp, msg.Seq, msg.Topic, body)
		return err
	}
	summary, err := summarize(msg)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s #%d %s %s\n", stamp, msg.Seq, msg.Topic, summary)
	return err
}
