package smtp

import (
	"encoding/json"
	"io"
	"net/mail"
	"strings"

	"github.com/jhillyerd/enmime"
)

// ParsedEmail carries the fields of an inbound message that map onto a
// Communication row.
type ParsedEmail struct {
	FromAddress string
	FromName    string
	ToAddresses []string
	Subject     string
	BodyText    string
	BodyHTML    string
}

// ParseEmail reads a MIME message and extracts the communication fields.
func ParseEmail(r io.Reader) (*ParsedEmail, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedEmail{
		Subject:  env.GetHeader("Subject"),
		BodyText: env.Text,
		BodyHTML: env.HTML,
	}
	parsed.FromName, parsed.FromAddress = splitFromHeader(env.GetHeader("From"))
	parsed.ToAddresses = parseAddressList(env.GetHeader("To"))

	return parsed, nil
}

// splitFromHeader extracts the display name and address from a From
// header. A value that does not parse as RFC 5322 is kept verbatim as
// the address so the sender is never silently lost.
func splitFromHeader(from string) (name, address string) {
	from = strings.TrimSpace(from)
	if from == "" {
		return "", ""
	}

	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "", from
	}
	return addr.Name, strings.ToLower(addr.Address)
}

// parseAddressList extracts the addresses from a To-style header.
func parseAddressList(header string) []string {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil
	}

	addrs, err := mail.ParseAddressList(header)
	if err != nil {
		return []string{header}
	}

	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, strings.ToLower(a.Address))
	}
	return out
}

// encodeToAddress renders recipients in the stored to_address form: a
// plain address for a single recipient, a JSON array string for several.
func encodeToAddress(addresses []string) string {
	switch len(addresses) {
	case 0:
		return ""
	case 1:
		return addresses[0]
	default:
		data, err := json.Marshal(addresses)
		if err != nil {
			return addresses[0]
		}
		return string(data)
	}
}
