package wire

import (
	"testing"

	"github.com/itohio/scalelog/pkg/clock"
	"github.com/itohio/scalelog/pkg/loadcell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		kind   MessageKind
		raw    float64
		ok     bool
		values []float64
	}{
		{name: "raw reply", line: "raw;12345.60\r\n", kind: MessageRaw, raw: 12345.6},
		{name: "negative raw", line: "raw;-20.50", kind: MessageRaw, raw: -20.5},
		{name: "bad raw", line: "raw;abc", kind: MessageText},
		{name: "ack ok", line: "cal;ok\n", kind: MessageAck, ok: true},
		{name: "ack err", line: "cal;err", kind: MessageAck, ok: false},
		{name: "bad ack", line: "cal;maybe", kind: MessageText},
		{name: "row echo", line: "2024/03/07;04:05:09;9034.65; \n", kind: MessageRow, values: []float64{9034.65}},
		{name: "diagnostic", line: "SD card initialized", kind: MessageText},
		{name: "clock print", line: "2024/03/07;04:05:09;", kind: MessageText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := ParseLine(tt.line)
			assert.Equal(t, tt.kind, msg.Kind, msg.Kind.String())
			assert.Equal(t, tt.raw, msg.Raw)
			assert.Equal(t, tt.ok, msg.OK)
			if tt.kind == MessageRow {
				assert.Equal(t, tt.values, msg.Row.Values)
				assert.Equal(t, clock.Timestamp{Year: 2024, Month: 3, Day: 7, Hour: 4, Minute: 5, Second: 9}, msg.Row.Timestamp)
			}
			assert.NotContains(t, msg.Text, "\n")
		})
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Command
		wantErr bool
	}{
		{name: "raw", line: "R\r\n", want: Command{Kind: CommandRaw}},
		{
			name: "calibrate",
			line: "C;9.378;343.35\n",
			want: Command{Kind: CommandCalibrate, Calibration: loadcell.Calibration{Scale: 9.378, Offset: 343.35, Convention: loadcell.Add}},
		},
		{name: "raw with args", line: "R;1", wantErr: true},
		{name: "calibrate missing offset", line: "C;9.378", wantErr: true},
		{name: "calibrate bad scale", line: "C;x;1", wantErr: true},
		{name: "calibrate bad offset", line: "C;1;y", wantErr: true},
		{name: "unknown", line: "Z", wantErr: true},
		{name: "empty", line: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.line, loadcell.Add)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "R\n", FormatRawRequest())
	assert.Equal(t, "raw;1000.00\n", FormatRaw(1000))
	assert.Equal(t, "cal;ok\n", FormatAck(true))
	assert.Equal(t, "cal;err\n", FormatAck(false))
	assert.Equal(t, "C;9.378;343.35\n", FormatCalibrate(loadcell.Calibration{Scale: 9.378, Offset: 343.35}))
}

func TestCalibrateRoundTrip(t *testing.T) {
	in := loadcell.Calibration{Scale: 0.0123, Offset: -45.5}
	cmd, err := ParseCommand(FormatCalibrate(in), loadcell.Subtract)
	require.NoError(t, err)
	assert.InDelta(t, in.Scale, cmd.Calibration.Scale, 1e-7)
	assert.InDelta(t, in.Offset, cmd.Calibration.Offset, 1e-5)

	msg := ParseLine(FormatRaw(-12.345))
	assert.Equal(t, MessageRaw, msg.Kind)
	assert.InDelta(t, -12.35, msg.Raw, 0.006)
}
