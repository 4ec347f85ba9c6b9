package notify

import (
	"fmt"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/forms-api/internal/submission"
)

// Built-in message templates. Liquid keeps the bodies editable without
// touching rendering code; parsed templates are cached after first use.
const (
	contactConfirmSubject = "We received your message"
	contactConfirmHTML    = `<html><body>
<p>Hi {{ name | default: "there" }},</p>
<p>Thanks for reaching out. We received your message and will reply to
{{ email }} as soon as we can.</p>
<p>— The team</p>
</body></html>`
	contactConfirmText = `Hi {{ name | default: "there" }},

Thanks for reaching out. We received your message and will reply to {{ email }} as soon as we can.

— The team`

	waitlistConfirmSubject = "You're on the waitlist"
	waitlistConfirmHTML    = `<html><body>
<p>Hi {{ name | default: "there" }},</p>
<p>You're in! You are number <strong>{{ position }}</strong> on the
waitlist. We'll email {{ email }} the moment a spot opens up.</p>
<p>— The team</p>
</body></html>`
	waitlistConfirmText = `Hi {{ name | default: "there" }},

You're in! You are number {{ position }} on the waitlist. We'll email {{ email }} the moment a spot opens up.

— The team`

	adminContactSubject = "New contact submission from {{ name }}"
	adminContactHTML    = `<html><body>
<p>New contact submission:</p>
<ul>
<li>Name: {{ name }}</li>
<li>Email: {{ email }}</li>
<li>Submitted: {{ submitted_at }}</li>
</ul>
<blockquote>{{ message | escape }}</blockquote>
</body></html>`

	adminWaitlistSubject = "New waitlist signup ({{ email }})"
	adminWaitlistHTML    = `<html><body>
<p>New waitlist signup:</p>
<ul>
<li>Email: {{ email }}</li>
<li>Name: {{ name }}</li>
<li>Position: {{ position }}</li>
<li>Submitted: {{ submitted_at }}</li>
</ul>
</body></html>`
)

// Templates renders the transactional messages sent by this service.
type Templates struct {
	engine *liquid.Engine
	cache  sync.Map // template source -> *liquid.Template
}

// NewTemplates builds the template renderer with the default filter set.
func NewTemplates() *Templates {
	engine := liquid.NewEngine()

	// Default filter so optional names fall back to a greeting.
	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		s := fmt.Sprintf("%v", value)
		if s == "" || s == "<nil>" {
			return defaultVal
		}
		return value
	})

	return &Templates{engine: engine}
}

func (t *Templates) render(source string, bindings map[string]interface{}) (string, error) {
	if cached, ok := t.cache.Load(source); ok {
		out, err := cached.(*liquid.Template).Render(bindings)
		if err != nil {
			return "", fmt.Errorf("rendering template: %w", err)
		}
		return string(out), nil
	}

	tpl, err := t.engine.ParseString(source)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}
	t.cache.Store(source, tpl)

	out, err := tpl.Render(bindings)
	if err != nil {
		return "", fmt.Errorf("rendering template: %w", err)
	}
	return string(out), nil
}

func contactBindings(c *submission.Contact) map[string]interface{} {
	return map[string]interface{}{
		"name":         c.Name,
		"email":        c.Email,
		"message":      c.Message,
		"submitted_at": c.SubmittedAt.Format("2006-01-02 15:04 UTC"),
	}
}

func waitlistBindings(e *submission.WaitlistEntry) map[string]interface{} {
	return map[string]interface{}{
		"name":         e.Name,
		"email":        e.Email,
		"position":     e.Position,
		"submitted_at": e.SubmittedAt.Format("2006-01-02 15:04 UTC"),
	}
}

// ContactConfirmation renders the confirmation sent to the submitter.
func (t *Templates) ContactConfirmation(c *submission.Contact) (subject, html, text string, err error) {
	b := contactBindings(c)
	if html, err = t.render(contactConfirmHTML, b); err != nil {
		return "", "", "", err
	}
	if text, err = t.render(contactConfirmText, b); err != nil {
		return "", "", "", err
	}
	return contactConfirmSubject, html, text, nil
}

// WaitlistConfirmation renders the confirmation sent to the signup,
// including their position.
func (t *Templates) WaitlistConfirmation(e *submission.WaitlistEntry) (subject, html, text string, err error) {
	b := waitlistBindings(e)
	if html, err = t.render(waitlistConfirmHTML, b); err != nil {
		return "", "", "", err
	}
	if text, err = t.render(waitlistConfirmText, b); err != nil {
		return "", "", "", err
	}
	return waitlistConfirmSubject, html, text, nil
}

// AdminContactAlert renders the internal notification for a new contact
// submission.
func (t *Templates) AdminContactAlert(c *submission.Contact) (subject, html string, err error) {
	b := contactBindings(c)
	if subject, err = t.render(adminContactSubject, b); err != nil {
		return "", "", err
	}
	if html, err = t.render(adminContactHTML, b); err != nil {
		return "", "", err
	}
	return subject, html, nil
}

// AdminWaitlistAlert renders the internal notification for a new
// waitlist signup.
func (t *Templates) AdminWaitlistAlert(e *submission.WaitlistEntry) (subject, html string, err error) {
	b := waitlistBindings(e)
	if subject, err = t.render(adminWaitlistSubject, b); err != nil {
		return "", "", err
	}
	if html, err = t.render(adminWaitlistHTML, b); err != nil {
		return "", "", err
	}
	return subject, html, nil
}
