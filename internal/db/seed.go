package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path"
)

// Sample fixture ids, stable so tests and demos can address them directly.
const (
	SampleSiteID = "seed-site-default"
	SampleFormID = "seed-form-contact"
)

type seedProp struct {
	name, language, typ string
	value               string
	values              []string
}

type seedNode struct {
	id, name, nodeType string
	props              []seedProp
	children           []seedNode
}

func str(name, language, value string) seedProp {
	return seedProp{name: name, language: language, typ: "STRING", value: value}
}

func boolean(name string, value bool) seedProp {
	return seedProp{name: name, typ: "BOOLEAN", value: fmt.Sprint(value)}
}

func multi(name, language string, values ...string) seedProp {
	return seedProp{name: name, language: language, typ: "STRING", values: values}
}

// SeedFixtures populates the EDIT workspace with a site and a two-step contact form
// using both language-neutral and translated properties, a select with stored
// option strings and a radio group with nested options.
func SeedFixtures(database *sql.DB) error {
	tree := seedNode{id: "seed-sites", name: "sites", nodeType: "jnt:virtualsitesFolder", children: []seedNode{
		{id: SampleSiteID, name: "default", nodeType: "jnt:virtualsite", props: []seedProp{
			str("jcr:title", "", "Default site"),
			multi("j:languages", "", "en", "fr"),
		}, children: []seedNode{
			{id: "seed-contents", name: "contents", nodeType: "jnt:contentFolder", children: []seedNode{
				{id: "seed-forms", name: "forms", nodeType: "jnt:contentFolder", children: []seedNode{
					sampleContactForm(),
				}},
			}},
		}},
	}}

	tx, err := database.Begin()
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := insertSeedNode(tx, nil, "/", 0, tree); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func sampleContactForm() seedNode {
	return seedNode{id: SampleFormID, name: "contact", nodeType: "fmdb:form", props: []seedProp{
		str("jcr:title", "en", "Contact us"),
		str("jcr:title", "fr", "Contactez-nous"),
		str("intro", "en", "Tell us how we can help."),
	}, children: []seedNode{
		{id: "seed-fieldsets", name: "fieldsets", nodeType: "jnt:contentList", children: []seedNode{
			{id: "seed-step-about", name: "about-you", nodeType: "fmdb:fieldset", props: []seedProp{
				str("jcr:title", "en", "About you"),
				str("jcr:description", "en", "Who is writing to us"),
			}, children: []seedNode{
				{id: "seed-field-name", name: "name", nodeType: "fmdb:inputText", props: []seedProp{
					str("jcr:title", "en", "Name"),
					boolean("required", true),
					str("placeholder", "en", "Jane Doe"),
				}},
				{id: "seed-field-email", name: "email", nodeType: "fmdb:inputEmail", props: []seedProp{
					str("jcr:title", "en", "E-mail"),
					boolean("required", true),
				}},
			}},
			{id: "seed-step-message", name: "your-message", nodeType: "fmdb:fieldset", props: []seedProp{
				str("jcr:title", "en", "Your message"),
			}, children: []seedNode{
				{id: "seed-field-topic", name: "topic", nodeType: "fmdb:select", props: []seedProp{
					str("jcr:title", "en", "Topic"),
					multi("options", "en",
						`{"label":"Sales","value":"sales","selected":false}`,
						`{"label":"Support","value":"support","selected":true}.`,
					),
				}},
				{id: "seed-field-contact-by", name: "contact-by", nodeType: "fmdb:radioGroup", props: []seedProp{
					str("jcr:title", "en", "Contact me by"),
				}, children: []seedNode{
					{id: "seed-radio-email", name: "by-email", nodeType: "fmdb:inputRadio", props: []seedProp{
						str("jcr:title", "en", "E-mail"),
						str("value", "en", "email"),
						boolean("defaultChecked", true),
					}},
					{id: "seed-radio-phone", name: "by-phone", nodeType: "fmdb:inputRadio", props: []seedProp{
						str("jcr:title", "en", "Phone"),
						str("value", "en", "phone"),
						boolean("defaultChecked", false),
					}},
				}},
				{id: "seed-field-message", name: "message", nodeType: "fmdb:textarea", props: []seedProp{
					str("jcr:title", "en", "Message"),
					str("rows", "en", "5"),
				}},
			}},
		}},
	}}
}

func insertSeedNode(tx *sql.Tx, parentID *string, parentPath string, position int, n seedNode) error {
	nodePath := path.Join(parentPath, n.name)
	if _, err := tx.Exec(
		"INSERT INTO nodes (id, workspace, parent_id, name, path, node_type, position, last_modified_by) VALUES (?, 'EDIT', ?, ?, ?, ?, ?, 'seed')",
		n.id, parentID, n.name, nodePath, n.nodeType, position,
	); err != nil {
		return fmt.Errorf("seed node %s: %w", nodePath, err)
	}

	for _, p := range n.props {
		var (
			value    sql.NullString
			vals     sql.NullString
			multiple int
		)
		if p.values != nil {
			encoded, err := json.Marshal(p.values)
			if err != nil {
				return fmt.Errorf("seed property %s: %w", p.name, err)
			}
			vals = sql.NullString{String: string(encoded), Valid: true}
			multiple = 1
		} else {
			value = sql.NullString{String: p.value, Valid: true}
		}
		if _, err := tx.Exec(
			"INSERT INTO properties (node_id, name, language, type, multiple, value, vals) VALUES (?, ?, ?, ?, ?, ?, ?)",
			n.id, p.name, p.language, p.typ, multiple, value, vals,
		); err != nil {
			return fmt.Errorf("seed property %s of %s: %w", p.name, nodePath, err)
		}
	}

	id := n.id
	for i, child := range n.children {
		if err := insertSeedNode(tx, &id, nodePath, i, child); err != nil {
			return err
		}
	}
	return nil
}
