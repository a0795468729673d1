package notify

import (
	"fmt"

	"github.com/flosch/pongo2/v6"
)

type Kind string

const (
	KindWelcome       Kind = "welcome"
	KindOrderAccepted Kind = "order_accepted"
	KindOrderRejected Kind = "order_rejected"
	KindOrderOverdue  Kind = "order_overdue"
)

type templateSource struct {
	subject, text, html string
}

var sources = map[Kind]templateSource{
	KindWelcome: {
		subject: `Welcome to the library, {{ name }}`,
		text:    "Hi {{ name }},\n\nyour library account is ready. Your member id is {{ userID }}.\n",
		html:    `<p>Hi {{ name }},</p><p>your library account is ready. Your member id is <b>{{ userID }}</b>.</p>`,
	},
	KindOrderAccepted: {
		subject: `Your order for "{{ book }}" was accepted`,
		text:    "Hi {{ name }},\n\nyour order {{ orderID }} for \"{{ book }}\" was accepted. Please return the book by {{ until }}.\n",
		html:    `<p>Hi {{ name }},</p><p>your order {{ orderID }} for <i>{{ book }}</i> was accepted. Please return the book by <b>{{ until }}</b>.</p>`,
	},
	KindOrderRejected: {
		subject: `Your order {{ orderID }} was not accepted`,
		text:    "Hi {{ name }},\n\nyour order {{ orderID }} was cancelled and will not be accepted.\n",
		html:    `<p>Hi {{ name }},</p><p>your order {{ orderID }} was cancelled and will not be accepted.</p>`,
	},
	KindOrderOverdue: {
		subject: `"{{ book }}" is overdue`,
		text:    "Hi {{ name }},\n\n\"{{ book }}\" was due back on {{ until }}. Please return it as soon as possible.\n",
		html:    `<p>Hi {{ name }},</p><p><i>{{ book }}</i> was due back on <b>{{ until }}</b>. Please return it as soon as possible.</p>`,
	},
}

// plain turns off HTML escaping for the subject and text parts.
func plain(src string) string {
	return "{% autoescape off %}" + src + "{% endautoescape %}"
}

type compiled struct {
	subject, text, html *pongo2.Template
}

type Templates struct {
	byKind map[Kind]compiled
}

func NewTemplates() (*Templates, error) {
	t := &Templates{byKind: make(map[Kind]compiled, len(sources))}
	for kind, src := range sources {
		var c compiled
		var err error
		if c.subject, err = pongo2.FromString(plain(src.subject)); err != nil {
			return nil, fmt.Errorf("compile %s subject: %w", kind, err)
		}
		if c.text, err = pongo2.FromString(plain(src.text)); err != nil {
			return nil, fmt.Errorf("compile %s text: %w", kind, err)
		}
		if c.html, err = pongo2.FromString(src.html); err != nil {
			return nil, fmt.Errorf("compile %s html: %w", kind, err)
		}
		t.byKind[kind] = c
	}
	return t, nil
}

func (t *Templates) Render(kind Kind, to string, data map[string]any) (Message, error) {
	c, ok := t.byKind[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown template %q", kind)
	}

	ctx := pongo2.Context(data)
	msg := Message{To: to}
	var err error
	if msg.Subject, err = c.subject.Execute(ctx); err != nil {
		return Message{}, fmt.Errorf("render %s subject: %w", kind, err)
	}
	if msg.Text, err = c.text.Execute(ctx); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", kind, err)
	}
	if msg.HTML, err = c.html.Execute(ctx); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", kind, err)
	}
	return msg, nil
}
