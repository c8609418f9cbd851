package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndAccessors(t *testing.T) {
	for rank := Two; rank <= Ace; rank++ {
		for suit := Spade; suit <= Diamond; suit++ {
			c := New(rank, suit)
			assert.Equal(t, rank, c.Rank())
			assert.Equal(t, suit, c.Suit())
			assert.True(t, c >= 0 && c < Count)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Card
		wantErr bool
	}{
		{
			name:  "royal flush",
			input: "AsKsQsJsTs",
			want: []Card{
				New(Ace, Spade), New(King, Spade), New(Queen, Spade),
				New(Jack, Spade), New(Ten, Spade),
			},
		},
		{
			name:  "mixed suits case insensitive",
			input: "ahKDqc",
			want:  []Card{New(Ace, Heart), New(King, Diamond), New(Queen, Club)},
		},
		{name: "empty string", input: "", want: []Card{}},
		{name: "invalid rank", input: "XsKs", wantErr: true},
		{name: "invalid suit", input: "AsKx", wantErr: true},
		{name: "odd length", input: "AsK", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaskOf(t *testing.T) {
	cards := MustParse("AsKs")
	mask := MaskOf(cards)
	assert.Equal(t, New(Ace, Spade).Mask()|New(King, Spade).Mask(), mask)
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("invalid") })
}
