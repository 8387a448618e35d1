package prompt

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formvalidator/pkg/dom"
	"github.com/goliatone/go-formvalidator/pkg/formstate"
)

// Messages maps field names to the message shown as help on the prompt.
type Messages map[string]string

// Fill prompts for every distinct field name in fields and writes the
// answers into doc. Radio groups become a single select prompt, checkboxes a
// confirm prompt. Controls that carry no user value are skipped.
func Fill(ctx context.Context, driver Driver, doc *dom.HTMLDocument, fields []formstate.Field, help Messages) error {
	for _, group := range groupFields(fields) {
		if err := fillGroup(ctx, driver, doc, group, help[group.name]); err != nil {
			return err
		}
	}
	return nil
}

type fieldGroup struct {
	name  string
	nodes []*html.Node
}

func groupFields(fields []formstate.Field) []fieldGroup {
	index := make(map[string]int)
	var groups []fieldGroup
	for _, field := range fields {
		if skipped(field.Node) {
			continue
		}
		if idx, ok := index[field.Name]; ok {
			groups[idx].nodes = append(groups[idx].nodes, field.Node)
			continue
		}
		index[field.Name] = len(groups)
		groups = append(groups, fieldGroup{name: field.Name, nodes: []*html.Node{field.Node}})
	}
	return groups
}

func skipped(node *html.Node) bool {
	if node == nil {
		return true
	}
	switch node.Data {
	case "button", "fieldset", "output", "object":
		return true
	}
	switch dom.InputType(node) {
	case "hidden", "submit", "reset", "button", "image", "file":
		return true
	}
	return false
}

func fillGroup(ctx context.Context, driver Driver, doc *dom.HTMLDocument, group fieldGroup, help string) error {
	first := group.nodes[0]
	message := label(group.name)

	switch {
	case dom.InputType(first) == "radio":
		options := make([]string, 0, len(group.nodes))
		defaultIndex := 0
		for idx, node := range group.nodes {
			options = append(options, doc.Value(node))
			if dom.Checked(node) {
				defaultIndex = idx
			}
		}
		choice, err := driver.Select(ctx, SelectConfig{Message: message, Options: options, DefaultIndex: defaultIndex, Help: help})
		if err != nil {
			return err
		}
		if choice < 0 {
			return nil
		}
		for _, node := range group.nodes {
			doc.SetValue(node, options[choice])
		}
		return nil

	case dom.InputType(first) == "checkbox":
		for _, node := range group.nodes {
			value := doc.Value(node)
			ok, err := driver.Confirm(ctx, ConfirmConfig{Message: message + " (" + value + ")", Default: dom.Checked(node), Help: help})
			if err != nil {
				return err
			}
			if ok {
				doc.SetValue(node, value)
			} else {
				doc.SetValue(node, "")
			}
		}
		return nil

	case first.Data == "select":
		options := dom.OptionValues(first)
		current := doc.Value(first)
		choice, err := driver.Select(ctx, SelectConfig{Message: message, Options: options, DefaultIndex: indexOf(options, current), Help: help})
		if err != nil {
			return err
		}
		if choice >= 0 {
			doc.SetValue(first, options[choice])
		}
		return nil
	}

	for _, node := range group.nodes {
		var (
			value string
			err   error
		)
		cfg := InputConfig{Message: message, Default: doc.Value(node), Help: help}
		switch {
		case node.Data == "textarea":
			value, err = driver.TextArea(ctx, cfg)
		case dom.InputType(node) == "password":
			value, err = driver.Password(ctx, cfg)
		default:
			value, err = driver.Input(ctx, cfg)
		}
		if err != nil {
			return err
		}
		doc.SetValue(node, value)
	}
	return nil
}

func label(name string) string {
	return strings.TrimSpace(name) + ":"
}
