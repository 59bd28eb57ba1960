package render

import (
	"strings"

	"github.com/corp-qr-hub/internal/domain/entry"
)

var vcardEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, ",", `\,`, ";", `\;`)

// VCard renders a contact card as a vCard 3.0 document for the "save
// contact" button of the public page.
func VCard(c entry.ContactCard) string {
	var b strings.Builder
	line := func(prop, value string) {
		if value == "" {
			return
		}
		b.WriteString(prop)
		b.WriteByte(':')
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	b.WriteString("BEGIN:VCARD\r\nVERSION:3.0\r\n")
	name := vcardEscaper.Replace(c.Name)
	b.WriteString("FN:" + name + "\r\n")
	b.WriteString("N:" + name + ";;;;\r\n")
	line("ORG", vcardEscaper.Replace(c.Company))
	line("TITLE", vcardEscaper.Replace(c.Role))
	line("EMAIL;TYPE=INTERNET", vcardEscaper.Replace(c.Email))
	line("TEL;TYPE=CELL", vcardEscaper.Replace(c.Phone))
	for _, l := range c.Links {
		line("URL", vcardEscaper.Replace(l.URL))
	}
	b.WriteString("END:VCARD\r\n")
	return b.String()
}
