// Package render produces the subject line and HTML body for one recipient.
//
// Two template variants exist: the built-in outreach email ("default") and a
// caller-supplied body ("custom"). Both run through the same two-pass
// placeholder resolver: the conditional link block is resolved first, then
// plain placeholders are substituted exactly once, so rendering is
// deterministic and never recursive.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/roster"
)

// Selector picks which template variant to render.
type Selector string

const (
	// TemplateDefault is the built-in outreach email.
	TemplateDefault Selector = "default"
	// TemplateCustom renders a caller-supplied HTML body.
	TemplateCustom Selector = "custom"
)

var (
	ErrUnknownTemplate   = errors.New("render: unknown template selector")
	ErrMissingCustomBody = errors.New("render: custom template selected but no body supplied")
)

// Email is a fully rendered message, ready for the delivery capability.
type Email struct {
	FromName string
	Subject  string
	HTML     string
}

// From display names. The default variant sends under the product name; the
// custom variant uses a neutral phrase since the body is not ours.
const (
	defaultFromName = "Career Connect"
	customFromName  = "Interview Request"
)

// Conditional link block markers. Everything between the markers is kept
// (markers stripped) when the record has a link, and removed entirely when it
// does not. The block may contain plain placeholders, which is why it must be
// resolved before the plain pass.
const (
	linkBlockOpen  = "{{#link}}"
	linkBlockClose = "{{/link}}"
)

// Validate checks a selector/body combination without rendering. The job
// entry point uses it to reject misconfigured requests before any job exists.
func Validate(sel Selector, customBody string) error {
	switch sel {
	case TemplateDefault:
		return nil
	case TemplateCustom:
		if strings.TrimSpace(customBody) == "" {
			return ErrMissingCustomBody
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, sel)
	}
}

// Render produces the message for one recipient. Rendering the same record
// with the same selector always yields identical output.
func Render(sel Selector, customBody string, rec roster.Record) (Email, error) {
	if err := Validate(sel, customBody); err != nil {
		return Email{}, err
	}

	subject := fmt.Sprintf("Request for an Interview Opportunity - %s at %s",
		rec.Get(roster.FieldRole), rec.Get(roster.FieldCompany))

	switch sel {
	case TemplateDefault:
		return Email{
			FromName: defaultFromName,
			Subject:  subject,
			HTML:     substitute(defaultDocument, rec),
		}, nil
	default: // TemplateCustom; Validate rejected everything else
		return Email{
			FromName: customFromName,
			Subject:  subject,
			HTML:     substitute(wrapDocument(customBody), rec),
		}, nil
	}
}

// substitute resolves conditional link blocks, then applies the plain
// placeholder pass once over the already-resolved text.
func substitute(body string, rec roster.Record) string {
	body = resolveLinkBlocks(body, rec.Get(roster.FieldLink) != "")
	return plainReplacer(rec).Replace(body)
}

func resolveLinkBlocks(body string, hasLink bool) string {
	for {
		open := strings.Index(body, linkBlockOpen)
		if open < 0 {
			return body
		}
		rest := body[open+len(linkBlockOpen):]
		end := strings.Index(rest, linkBlockClose)
		if end < 0 {
			// Unterminated block; leave the text alone rather than guess.
			return body
		}
		fragment := rest[:end]
		tail := rest[end+len(linkBlockClose):]
		if hasLink {
			body = body[:open] + fragment + tail
		} else {
			body = body[:open] + tail
		}
	}
}

// plainReplacer substitutes the closed set of placeholders. strings.Replacer
// makes a single pass over the input, so replacement values are never
// re-scanned for placeholders.
func plainReplacer(rec roster.Record) *strings.Replacer {
	return strings.NewReplacer(
		"{{firstName}}", rec.FirstName(),
		"{{fullName}}", rec.Get(roster.FieldName),
		"{{company}}", rec.Get(roster.FieldCompany),
		"{{email}}", rec.Get(roster.FieldEmail),
		"{{role}}", rec.Get(roster.FieldRole),
		"{{link}}", rec.Get(roster.FieldLink),
	)
}

// wrapDocument merges a caller-supplied body with the fixed style block into
// a complete HTML document.
func wrapDocument(body string) string {
	return "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n" +
		"<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n" +
		styleBlock + "\n</head>\n<body>\n" + body + "\n</body>\n</html>"
}

const styleBlock = `<style>
    body {
        font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
        line-height: 1.6;
        color: #333;
        max-width: 600px;
        margin: 0 auto;
        padding: 20px;
    }
    a.action-button {
        background-color: #4F46E5;
        color: white;
        padding: 12px 24px;
        text-decoration: none;
        border-radius: 6px;
        display: inline-block;
    }
</style>`

const defaultDocument = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <p>Hi {{firstName}},</p>
    <p>I hope this message finds you well. I recently came across the <strong>{{role}}</strong> opening at <strong>{{company}}</strong> and was immediately drawn to it &mdash; the work your team is doing aligns closely with my background and interests.</p>
    <p>I would welcome the chance to talk about how I could contribute to {{company}}. Would you be open to a short call over the next couple of weeks?</p>
    {{#link}}<p style="margin: 30px 0;">
        <a href="{{link}}" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">View My Work</a>
    </p>{{/link}}
    <p>Thank you for your time and consideration.</p>
    <p>Best regards</p>
    <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
    <p style="color: #666; font-size: 14px;">This email was sent regarding the {{role}} position at {{company}}.</p>
</body>
</html>`
