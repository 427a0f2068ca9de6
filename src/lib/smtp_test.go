package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMailMessageRecipients(t *testing.T) {
	msg := BuildMailMessage(&SendMailInput{
		From:     "noreply@pitchbook.test",
		FromName: "Pitch Booking",
		To:       []string{"player@pitchbook.test"},
		Cc:       []string{"owner@pitchbook.test"},
		Bcc:      []string{"audit@pitchbook.test"},
		Subject:  "Booking confirmed",
		Body:     "Your booking is confirmed.",
	})

	to := msg.GetTo()
	if assert.Len(t, to, 1) {
		assert.Equal(t, "player@pitchbook.test", to[0].Address)
	}
	cc := msg.GetCc()
	if assert.Len(t, cc, 1) {
		assert.Equal(t, "owner@pitchbook.test", cc[0].Address)
	}
	bcc := msg.GetBcc()
	if assert.Len(t, bcc, 1) {
		assert.Equal(t, "audit@pitchbook.test", bcc[0].Address)
	}
}
