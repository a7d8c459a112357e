package sealer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	hexKey, err := GenerateKey()
	require.NoError(t, err)
	key, err := ParseKey(hexKey)
	require.NoError(t, err)

	sealed, err := Seal(key, []byte("bearer-token"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "bearer-token")

	msg, err := Open(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, "bearer-token", string(msg))

	other, err := GenerateKey()
	require.NoError(t, err)
	otherKey, err := ParseKey(other)
	require.NoError(t, err)
	_, err = Open(otherKey, sealed)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestParseKey(t *testing.T) {
	tests := map[string]struct {
		in      string
		wantErr bool
	}{
		"valid":     {in: "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"},
		"too short": {in: "0001", wantErr: true},
		"not hex":   {in: "zz", wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestOpen_Truncated(t *testing.T) {
	key := &Key{}
	_, err := Open(key, []byte("short"))
	assert.ErrorIs(t, err, ErrOpen)
}
