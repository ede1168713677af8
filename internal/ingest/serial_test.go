package ingest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestPortOptions_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		in      PortOptions
		want    PortOptions
		wantErr bool
	}{
		{"defaults", PortOptions{}, PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N"}, false},
		{"even long form", PortOptions{BaudRate: 9600, Parity: " even "}, PortOptions{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "E"}, false},
		{"odd", PortOptions{Parity: "o", StopBits: 2}, PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 2, Parity: "O"}, false},
		{"bad data bits", PortOptions{DataBits: 9}, PortOptions{}, true},
		{"bad stop bits", PortOptions{StopBits: 3}, PortOptions{}, true},
		{"bad parity", PortOptions{Parity: "mark"}, PortOptions{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 57600, StopBits: 2, Parity: "E"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, 57600, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
	assert.Equal(t, serial.EvenParity, mode.Parity)

	_, err = PortOptions{Parity: "X"}.SerialMode()
	assert.Error(t, err)
}

func TestMonitor_DispatchesLines(t *testing.T) {
	sink := newRecordingSink()
	input := strings.Join([]string{
		string(envelope(TopicVehicleState, `{"x":1}`)),
		"",
		"garbage",
		string(envelope(TopicGoal, `{"x":2}`)),
	}, "\n")

	err := Monitor(context.Background(), strings.NewReader(input), NewDispatcher(sink))
	require.NoError(t, err)
	assert.Equal(t, []string{"pose", "goal"}, sink.calls)
}

func TestMonitor_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Monitor(ctx, r, NewDispatcher(newRecordingSink()))
	assert.True(t, errors.Is(err, context.Canceled))
}

type fakePort struct {
	io.Reader
	closed bool
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSerialSource_Run(t *testing.T) {
	sink := newRecordingSink()
	port := &fakePort{Reader: strings.NewReader(string(envelope(TopicVehicleState, `{"x":1}`)) + "\n")}
	var gotPath string
	var gotMode *serial.Mode

	src := &SerialSource{
		Path:       "/dev/ttyTEST",
		Dispatcher: NewDispatcher(sink),
		Open: func(path string, mode *serial.Mode) (io.ReadCloser, error) {
			gotPath, gotMode = path, mode
			return port, nil
		},
	}
	require.NoError(t, src.Run(context.Background()))

	assert.Equal(t, "/dev/ttyTEST", gotPath)
	assert.Equal(t, 115200, gotMode.BaudRate)
	assert.True(t, port.closed)
	assert.Equal(t, 1, sink.callCount())
}

func TestSerialSource_OpenFails(t *testing.T) {
	src := &SerialSource{
		Path:       "/dev/missing",
		Dispatcher: NewDispatcher(newRecordingSink()),
		Open: func(string, *serial.Mode) (io.ReadCloser, error) {
			return nil, errors.New("no such device")
		},
	}
	err := src.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/dev/missing")
}

func TestSerialSource_BadOptions(t *testing.T) {
	src := &SerialSource{Options: PortOptions{DataBits: 12}}
	assert.Error(t, src.Run(context.Background()))
}
