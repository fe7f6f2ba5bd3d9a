package logfile

import (
	"strings"
	"testing"

	"github.com/itohio/scalelog/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRows(t *testing.T) {
	input := "Data;Hora;Id;Bateria[V];Temp_placa[C];Temp_solo[C];Const_Diel;Condutiv[uS/cm];Umidade[m3/m3*100];Salinidade[uS/cm]\n" +
		"2024/03/07;04:05:09;9034.65; \n" +
		"2024/03/07;04:20:09;9030.10; \r\n"

	rows, err := ReadRows(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, clock.Timestamp{Year: 2024, Month: 3, Day: 7, Hour: 4, Minute: 5, Second: 9}, rows[0].Timestamp)
	assert.Equal(t, []float64{9034.65}, rows[0].Values)
	assert.Equal(t, []float64{9030.10}, rows[1].Values)
}

func TestReadRows_RoundTrip(t *testing.T) {
	ts := clock.Timestamp{Year: 2023, Month: 12, Day: 31, Hour: 23, Minute: 45, Second: 0}
	input := "Data;Hora;Peso\n" + FormatRow(ts, 1250.5)

	rows, err := ReadRows(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ts, rows[0].Timestamp)
	assert.Equal(t, []float64{1250.5}, rows[0].Values)
}

func TestReadRows_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "bad date", input: "h\n2024-03-07;04:05:09;1.00; \n"},
		{name: "bad value", input: "h\n2024/03/07;04:05:09;heavy; \n"},
		{name: "missing time", input: "h\n2024/03/07\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRows(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestReadRows_HeaderOnly(t *testing.T) {
	rows, err := ReadRows(strings.NewReader("Data;Hora;Peso\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseRow(t *testing.T) {
	row, err := ParseRow("2024/03/07;04:05:09;9034.65; \r\n")
	require.NoError(t, err)
	assert.Equal(t, clock.Timestamp{Year: 2024, Month: 3, Day: 7, Hour: 4, Minute: 5, Second: 9}, row.Timestamp)
	assert.Equal(t, []float64{9034.65}, row.Values)

	_, err = ParseRow("SD card initialized")
	assert.Error(t, err)
}
