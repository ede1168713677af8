package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/drive-visualizer/internal/stream"
)

func TestSplitTopics(t *testing.T) {
	got := splitTopics(" visualization_goal, ,tf,")
	if len(got) != 2 || got[0] != "visualization_goal" || got[1] != "tf" {
		t.Errorf("splitTopics = %q", got)
	}
	if got := splitTopics(""); got != nil {
		t.Errorf("splitTopics(\"\") = %q, want nil", got)
	}
}

func TestPrintMessage(t *testing.T) {
	payload, err := structpb.NewStruct(map[string]any{
		"markers": []any{
			map[string]any{"ns": "goal", "id": 0},
			map[string]any{"ns": "goal_label", "id": 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	stamp := time.Date(2026, 1, 1, 12, 30, 15, 250e6, time.UTC).UnixNano()
	msg := stream.Message{Topic: "visualization_goal", Seq: 9, StampNs: stamp, Payload: payload}

	var buf bytes.Buffer
	if err := printMessage(&buf, msg, false); err != nil {
		t.Fatalf("printMessage: %v", err)
	}
	if got, want := buf.String(), "12:30:15.250 #9 visualization_goal 2 markers\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	msg.Topic = "tf"
	buf.Reset()
	if err := printMessage(&buf, msg, false); err != nil {
		t.Fatalf("printMessage: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "tf 1 fields\n") {
		t.Errorf("got %q", buf.String())
	}

	buf.Reset()
	if err := printMessage(&buf, msg, true); err != nil {
		t.Fatalf("printMessage: %v", err)
	}
	if !strings.Contains(buf.String(), `"markers"`) {
		t.Errorf("full output missing payload: %q", buf.String())
	}
}
