package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrompterConfirm(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("y\nYES\nno\n\n"), &out)

	assert.True(t, p.Confirm("Mint 10 TT?"))
	assert.True(t, p.Confirm("again?"))
	assert.False(t, p.Confirm("again?"))
	assert.False(t, p.ConfirmDanger("remove wallet?"), "empty answer is no")
	assert.False(t, p.Confirm("eof?"), "EOF is no")
	assert.Contains(t, out.String(), "Mint 10 TT?")
	assert.Contains(t, out.String(), "[y/N]")
}

func TestPrompterInputSharesBuffer(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("  0x70997970C51812dc3A010C7d01b50e0d17dc79C8 \n1.5\n"), &out)

	assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", p.Input("Recipient"))
	assert.Equal(t, "1.5", p.Input("Amount"))
	assert.Contains(t, out.String(), "Recipient")
}

func TestSpinnerWritesAndClears(t *testing.T) {
	var out bytes.Buffer
	s := NewSpinnerTo(&out, "waiting")
	s.Start()
	s.StopWithMsg("done")

	got := out.String()
	assert.Contains(t, got, "waiting", "the first frame is drawn before stop is checked")
	assert.True(t, strings.HasSuffix(got, "done\n"))

	s.Update("submitted 0xabc")
	assert.Equal(t, "submitted 0xabc", s.msg)
}
