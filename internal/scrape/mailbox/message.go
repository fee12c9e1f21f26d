package mailbox

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"
)

// Message is one mail pulled from the alert inbox.
type Message struct {
	UID     uint32
	From    string
	Subject string
	Date    time.Time

	// Raw is the full RFC822 message (headers + body).
	Raw []byte
}

// Bodies returns the best plain-text and HTML parts of the message.
func (m Message) Bodies() (plain, htmlBody string) {
	if len(m.Raw) == 0 {
		return "", ""
	}
	msg, err := mail.ReadMessage(bytes.NewReader(m.Raw))
	if err != nil {
		return string(m.Raw), ""
	}
	body, _ := io.ReadAll(io.LimitReader(msg.Body, 25<<20))

	plain, htmlBody = mimeTextParts(msg.Header, body)
	if plain == "" && htmlBody == "" {
		plain = string(body)
	}
	return plain, htmlBody
}

func mimeTextParts(h mail.Header, body []byte) (plain, htmlPart string) {
	ct := h.Get("Content-Type")
	cte := strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding")))

	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return string(decodeTransfer(body, cte)), ""
	}
	mediaType = strings.ToLower(mediaType)

	if !strings.HasPrefix(mediaType, "multipart/") {
		s := string(decodeTransfer(body, cte))
		if strings.HasPrefix(mediaType, "text/html") {
			return "", s
		}
		return s, ""
	}

	boundary := params["boundary"]
	if boundary == "" {
		return string(decodeTransfer(body, cte)), ""
	}
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		p, err := mr.NextPart()
		if err != nil {
			break
		}
		pMedia, _, _ := mime.ParseMediaType(p.Header.Get("Content-Type"))
		pMedia = strings.ToLower(pMedia)

		b, _ := io.ReadAll(io.LimitReader(p, 20<<20))
		b = decodeTransfer(b, strings.ToLower(strings.TrimSpace(p.Header.Get("Content-Transfer-Encoding"))))

		switch {
		case strings.HasPrefix(pMedia, "multipart/"):
			pl, ht := mimeTextParts(mail.Header(p.Header), b)
			if len(pl) > len(plain) {
				plain = pl
			}
			if len(ht) > len(htmlPart) {
				htmlPart = ht
			}
		case strings.HasPrefix(pMedia, "text/plain"):
			if len(b) > len(plain) {
				plain = string(b)
			}
		case strings.HasPrefix(pMedia, "text/html"):
			if len(b) > len(htmlPart) {
				htmlPart = string(b)
			}
		}
	}
	return plain, htmlPart
}

func decodeTransfer(b []byte, cte string) []byte {
	var r io.Reader
	switch cte {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, bytes.NewReader(b))
	case "quoted-printable":
		r = quotedprintable.NewReader(bytes.NewReader(b))
	default:
		return b
	}
	out, _ := io.ReadAll(io.LimitReader(r, 6<<20))
	return out
}

func decodeHeader(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	out, err := new(mime.WordDecoder).DecodeHeader(s)
	if err != nil {
		return s
	}
	return out
}
