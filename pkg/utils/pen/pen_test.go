package pen_test

import (
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/ripple-mq/echor/pkg/utils/pen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLog(t *testing.T) {
	tests := []struct {
		name    string
		level   []string
		want    log.Level
		wantErr bool
	}{
		{name: "default level", want: log.InfoLevel},
		{name: "empty level", level: []string{""}, want: log.InfoLevel},
		{name: "debug level", level: []string{"debug"}, want: log.DebugLevel},
		{name: "unknown level", level: []string{"loud"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pen.InitLog(tt.level...)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
	require.NoError(t, pen.InitLog())
}

func TestPayload(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		max  int
		want string
	}{
		{name: "plain text", in: []byte("abc"), max: 16, want: `"abc"`},
		{name: "control characters", in: []byte("a\r\n"), max: 16, want: `"a\r\n"`},
		{name: "lone continuation byte", in: []byte{'a', 0x80, 'b'}, max: 16, want: "\"a�b\""},
		{name: "truncated", in: []byte("abcdef"), max: 2, want: `"ab" (+4 bytes)`},
		{name: "metadata only", in: []byte{0xff, 0xfe}, max: 0, want: "<2 bytes>"},
		{name: "empty", in: nil, max: 8, want: `""`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pen.Payload(tt.in, tt.max))
		})
	}
}

func TestPayload_NeverFailsOnBinary(t *testing.T) {
	buf := make([]byte, 256)
	for i := range buf {
		buf[i] = byte(i)
	}
	out := pen.Payload(buf, len(buf))
	assert.True(t, strings.HasPrefix(out, `"`))
}
