package render

import (
	"fmt"
	"strings"

	"github.com/agentflare-ai/pydocmd/internal/docstring"
	"github.com/agentflare-ai/pydocmd/internal/model"
)

const notInSignature = "_(not in signature)_"

func (p *page) table(title string, header []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(p.w, "**%s**\n\n", title)
	fmt.Fprintf(p.w, "| %s |\n", strings.Join(header, " | "))
	fmt.Fprintf(p.w, "|%s\n", strings.Repeat(" --- |", len(header)))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = cell(c)
		}
		fmt.Fprintf(p.w, "| %s |\n", strings.Join(cells, " | "))
	}
	fmt.Fprintln(p.w)
}

// cell makes text safe for a single table cell.
func cell(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "|", `\|`)
	paras := strings.Split(text, "\n\n")
	for i, para := range paras {
		paras[i] = strings.Join(strings.Fields(para), " ")
	}
	return strings.Join(paras, "<br><br>")
}

func paramName(prm model.Param) string {
	switch prm.Kind {
	case model.VarPositional:
		return "*" + prm.Name
	case model.VarKeyword:
		return "**" + prm.Name
	}
	return prm.Name
}

// params writes the parameter table: one row per parameter in signature
// order, then documented parameters the signature lacks.
func (p *page) params(params []model.Param, doc *docstring.Docstring) {
	var rows [][]string
	for _, prm := range params {
		def, desc := prm.Default, ""
		if dp, ok := doc.Param(prm.Name); ok {
			desc = dp.Description
			if def == "" {
				def = dp.Default
			}
		}
		rows = append(rows, []string{code(paramName(prm)), p.typeText(prm.Type), code(def), desc})
	}
	rows = append(rows, p.orphans(doc)...)
	p.table("Parameters", []string{"Name", "Type", "Default", "Description"}, rows)
}

func (p *page) orphans(doc *docstring.Docstring) [][]string {
	var rows [][]string
	for _, dp := range doc.Params {
		if !dp.Orphan {
			continue
		}
		desc := notInSignature
		if dp.Description != "" {
			desc = dp.Description + " " + notInSignature
		}
		rows = append(rows, []string{code(dp.Name), p.typeText(dp.Type), code(dp.Default), desc})
	}
	return rows
}

// classParams documents constructor arguments described in the class
// docstring, typed from __init__ where the docstring gives no type.
func (p *page) classParams(c *model.Class, doc *docstring.Docstring) {
	var init *model.Function
	if m, ok := c.Local("__init__"); ok {
		init, _ = m.Entity.(*model.Function)
	}
	var rows [][]string
	for _, dp := range doc.Params {
		if dp.Orphan {
			continue
		}
		typ, def := dp.Type, dp.Default
		if init != nil {
			for _, prm := range init.Params {
				if prm.Name != strings.TrimLeft(dp.Name, "*") {
					continue
				}
				if typ == "" {
					typ = prm.Type
				}
				if def == "" {
					def = prm.Default
				}
			}
		}
		rows = append(rows, []string{code(dp.Name), p.typeText(typ), code(def), dp.Description})
	}
	rows = append(rows, p.orphans(doc)...)
	p.table("Parameters", []string{"Name", "Type", "Default", "Description"}, rows)
}

func (p *page) returns(title string, r *docstring.Returns, typ string) {
	if r == nil && typ == "" {
		return
	}
	var desc string
	if r != nil {
		if r.Type != "" {
			typ = r.Type
		}
		desc = r.Description
		if r.Name != "" {
			desc = strings.TrimSpace(code(r.Name) + " " + desc)
		}
	}
	p.table(title, []string{"Type", "Description"}, [][]string{{p.typeText(typ), desc}})
}

func (p *page) raises(doc *docstring.Docstring) {
	var rows [][]string
	for _, r := range doc.Raises {
		rows = append(rows, []string{p.typeText(r.Type), r.Description})
	}
	p.table("Raises", []string{"Exception", "Description"}, rows)
}

// leftoverAttributes lists attributes described in a docstring that match
// no documented member.
func (p *page) leftoverAttributes(doc *docstring.Docstring, members []model.Entity) {
	if p.opts.IgnoreData {
		return
	}
	names := make(map[string]bool, len(members))
	for _, e := range members {
		names[e.Name()] = true
	}
	var rows [][]string
	for _, a := range doc.Attributes {
		if names[a.Name] {
			continue
		}
		rows = append(rows, []string{code(a.Name), p.typeText(a.Type), a.Description})
	}
	p.table("Attributes", []string{"Name", "Type", "Description"}, rows)
}

func (p *page) examples(doc *docstring.Docstring) {
	if len(doc.Examples) == 0 {
		return
	}
	fmt.Fprintf(p.w, "**Examples**\n\n")
	for _, ex := range doc.Examples {
		text := dedent(strings.Trim(ex.Description, "\n"))
		if text == "" {
			continue
		}
		if isDoctest(text) {
			fmt.Fprintf(p.w, "```python\n%s\n```\n\n", text)
			continue
		}
		fmt.Fprintf(p.w, "%s\n\n", text)
	}
}

// isDoctest reports whether text is an interactive session without its own
// code fence.
func isDoctest(text string) bool {
	if strings.Contains(text, "```") {
		return false
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), ">>>") {
			return true
		}
	}
	return false
}
