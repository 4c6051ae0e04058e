package mailparse

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseMessage(t *testing.T, raw string) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	require.NoError(t, err)
	return msg
}

func TestExtractTextPlainMessage(t *testing.T) {
	msg := parseMessage(t, "From: buyer@example.com\r\n"+
		"Subject: Quote request\r\n"+
		"\r\n"+
		"Please quote 500 kg of citric acid.\r\n")

	text, err := ExtractText(msg)
	require.NoError(t, err)
	assert.Contains(t, text, "500 kg of citric acid")
}

func TestExtractTextMultipart(t *testing.T) {
	raw := "From: buyer@example.com\r\n" +
		"Subject: Order status\r\n" +
		"Content-Type: multipart/alternative; boundary=\"BOUNDARY\"\r\n" +
		"\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"Where is order 12345?\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>Where is order 12345?</p>\r\n" +
		"--BOUNDARY--\r\n"

	text, err := ExtractText(parseMessage(t, raw))
	require.NoError(t, err)
	assert.Contains(t, text, "Where is order 12345?")
	assert.NotContains(t, text, "<p>")
}

func TestExtractTextMultipartWithoutPlainPart(t *testing.T) {
	raw := "From: buyer@example.com\r\n" +
		"Subject: Order status\r\n" +
		"Content-Type: multipart/mixed; boundary=\"BOUNDARY\"\r\n" +
		"\r\n" +
		"--BOUNDARY\r\n" +
		"Content-Type: application/pdf\r\n" +
		"\r\n" +
		"binarydata\r\n" +
		"--BOUNDARY--\r\n"

	text, err := ExtractText(parseMessage(t, raw))
	require.NoError(t, err)
	assert.Equal(t, "[No text content found in multipart message]", text)
}
