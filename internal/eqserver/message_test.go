package eqserver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/equityprobe/internal/eqconfig"
)

func TestNewMessageRoundTrips(t *testing.T) {
	msg, err := NewMessage(MessageTypeCalculate, CalculateData{Hands: []string{"AA", "KK"}})
	require.NoError(t, err)
	assert.Equal(t, MessageTypeCalculate, msg.Type)

	var data CalculateData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.Equal(t, []string{"AA", "KK"}, data.Hands)
}

func TestBuildOptionsResolvesPresetAndRejectsBadRange(t *testing.T) {
	cfg := eqconfig.Default()
	cfg.Presets = append(cfg.Presets, eqconfig.PresetConfig{Name: "loose-button", Range: "22+,A2+"})

	opts, err := buildOptions(CalculateData{Hands: []string{"loose-button", "QQ"}}, cfg)
	require.NoError(t, err)
	assert.Len(t, opts.Ranges, 2)
	assert.Greater(t, len(opts.Ranges[0]), 6) // more than a single pair's worth of combos

	_, err = buildOptions(CalculateData{Hands: []string{"not a range"}}, cfg)
	assert.Error(t, err)

	_, err = buildOptions(CalculateData{}, cfg)
	assert.ErrorIs(t, err, errNoHands)
}
