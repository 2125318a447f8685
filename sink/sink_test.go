package sink

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/adelbot/logstash-codec-netflow/record"
	"github.com/stretchr/testify/require"
)

func TestStdoutDriverWritesOneJSONLinePerEvent(t *testing.T) {
	buf := &bytes.Buffer{}
	d := &StdoutDriver{w: buf}
	require.NoError(t, d.Init())

	e := record.New("netflow", "10.0.0.1", time.Unix(1_600_000_000, 0).UTC())
	e.SetField("in_bytes", uint32(100))
	require.NoError(t, d.Send(e))

	e2 := record.New("netflow", "10.0.0.2", time.Unix(1_600_000_001, 0).UTC())
	require.NoError(t, d.Send(e2))

	lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
	require.Len(t, lines, 2)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &decoded))
	require.Equal(t, "10.0.0.1", decoded["source_host"])
}

func TestFindUnknownSinkErrors(t *testing.T) {
	_, err := Find("does-not-exist", nil)
	require.Error(t, err)
}

func TestRegisterAndFind(t *testing.T) {
	buf := &bytes.Buffer{}
	Register("test-stdout", &StdoutDriver{w: buf})

	s, err := Find("test-stdout", nil)
	require.NoError(t, err)
	defer s.Close()

	e := record.New("netflow", "10.0.0.1", time.Now().UTC())
	require.NoError(t, s.Send(e))
	require.Contains(t, buf.String(), "10.0.0.1")
}
