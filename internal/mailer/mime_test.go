package mailer

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactform/backend/internal/domain"
)

func testOutbound() *domain.OutboundMessage {
	return &domain.OutboundMessage{
		To:        "owner@example.com",
		ToName:    "Business Owner",
		Subject:   "Website Inquiry from Jane Doe (Acme)",
		HTMLBody:  "<html><body>hello</body></html>",
		TextBody:  "hello",
		ReplyTo:   "jane@acme.example",
		ReplyName: "Jane Doe",
	}
}

var boundaryRegex = regexp.MustCompile(`boundary="([^"]+)"`)

func TestBuildMessage(t *testing.T) {
	raw := string(buildMessage("Example Corp", "office@example.com", testOutbound()))

	t.Run("carries minimal headers", func(t *testing.T) {
		assert.Contains(t, raw, "From: Example Corp <office@example.com>\r\n")
		assert.Contains(t, raw, "To: Business Owner <owner@example.com>\r\n")
		assert.Contains(t, raw, "Reply-To: Jane Doe <jane@acme.example>\r\n")
		assert.Contains(t, raw, "Subject: Website Inquiry from Jane Doe (Acme)\r\n")
		assert.Contains(t, raw, "MIME-Version: 1.0\r\n")
	})

	t.Run("boundary declaration matches part delimiters", func(t *testing.T) {
		match := boundaryRegex.FindStringSubmatch(raw)
		require.Len(t, match, 2)
		boundary := match[1]

		assert.Equal(t, 2, strings.Count(raw, "--"+boundary+"\r\n"))
		assert.Contains(t, raw, "--"+boundary+"--\r\n")
	})

	t.Run("plain part precedes html part", func(t *testing.T) {
		textIdx := strings.Index(raw, "Content-Type: text/plain; charset=UTF-8")
		htmlIdx := strings.Index(raw, "Content-Type: text/html; charset=UTF-8")
		require.NotEqual(t, -1, textIdx)
		require.NotEqual(t, -1, htmlIdx)
		assert.Less(t, textIdx, htmlIdx)
	})

	t.Run("omits reply-to when absent", func(t *testing.T) {
		msg := testOutbound()
		msg.ReplyTo = ""
		raw := string(buildMessage("Example Corp", "office@example.com", msg))
		assert.NotContains(t, raw, "Reply-To:")
	})

	t.Run("bare lf normalized to crlf", func(t *testing.T) {
		msg := testOutbound()
		msg.TextBody = "line one\nline two"
		raw := string(buildMessage("Example Corp", "office@example.com", msg))
		assert.Contains(t, raw, "line one\r\nline two")
	})
}

// TestBoundaryUniqueness 连续组装的消息不得复用相同的分隔符
func TestBoundaryUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		raw := string(buildMessage("Example Corp", "office@example.com", testOutbound()))
		match := boundaryRegex.FindStringSubmatch(raw)
		require.Len(t, match, 2)

		_, dup := seen[match[1]]
		require.False(t, dup, "boundary reused: %s", match[1])
		seen[match[1]] = struct{}{}
	}
}
