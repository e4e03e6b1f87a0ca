package mail

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_ReplyToCarriesVisitorAddress(t *testing.T) {
	m := Message{
		Subject: "Shipping question",
		From:    "store@localhost",
		ReplyTo: "reader@example.com",
		To:      []string{"admin@localhost"},
		Body:    "Where is my order?",
	}

	rendered := string(m.render())
	assert.Contains(t, rendered, "From: store@localhost\r\n")
	assert.Contains(t, rendered, "Reply-To: reader@example.com\r\n")
	assert.Contains(t, rendered, "To: admin@localhost\r\n")
	assert.True(t, strings.HasSuffix(rendered, "\r\n\r\nWhere is my order?"))
}

func TestRender_NoReplyToHeaderWhenUnset(t *testing.T) {
	m := Message{
		Subject: "Digest",
		From:    "store@localhost",
		To:      []string{"admin@localhost"},
		Body:    "Weekly numbers.",
	}
	assert.NotContains(t, string(m.render()), "Reply-To:")
}
