package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	tokens := []Token{
		RespondTo(42),
		ListCandidates(7),
		ChooseWalker(42, 1001),
		ViewProfile(42, 9007199254740993),
		ApproveWalker(555),
		RejectWalker(556),
		PickService("boarding"),
		PickWalkType("active"),
		ConfirmOrder(),
		RejectOrder(),
		BackToMain(),
		BecomeWalkerToken(),
	}
	for _, tok := range tokens {
		t.Run(tok.String(), func(t *testing.T) {
			got, err := Decode(tok.Encode())
			require.NoError(t, err)
			assert.Equal(t, tok, got)
		})
	}
}

func TestEncodeLayout(t *testing.T) {
	assert.Equal(t, "pr:42", RespondTo(42).Encode())
	assert.Equal(t, "choose:42:7", ChooseWalker(42, 7).Encode())
	assert.Equal(t, "ord:confirm", ConfirmOrder().Encode())
	assert.Equal(t, "appr:9", ApproveWalker(9).Encode())
}

func TestDecodeTelebotPrefix(t *testing.T) {
	got, err := Decode("\fpr:5")
	require.NoError(t, err)
	assert.Equal(t, RespondTo(5), got)
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"pr",
		"pr:",
		"pr:abc",
		"pr:-1",
		"pr:0",
		"pr:1:2",
		"choose:1",
		"choose:1:x",
		"unknown:1",
		"ord:maybe",
		"back:home",
		"srv:",
		"srv:a:b",
	}
	for _, c := range cases {
		_, err := Decode(c)
		assert.ErrorIs(t, err, ErrMalformed, c)
	}
}

func TestEncodePanicsOnBadToken(t *testing.T) {
	assert.Panics(t, func() { Token{Intent: "nope"}.Encode() })
	assert.Panics(t, func() { PickService("a:b").Encode() })
	assert.Equal(t, "invalid", Token{Intent: Service}.String())
}
