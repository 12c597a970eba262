/*
Package coach is a deterministic, table-driven dialogue engine for scripted assistants.

A response table maps state identifiers to nodes: a message plus an ordered list of
options, each naming the next state. A session pairs the current state with an
append-only transcript. Choosing an option appends the user's choice and the bot's
reply; a target missing from the table is answered by the fallback node, so the
conversation never gets stuck.

# Concept

The engine owns no UI. Presentation surfaces (the terminal runner, the HTTP adapter,
the MCP server, or your own) call Open, Select and Close and re-render from the
transcript they get back. Sessions are plain values: every call returns a new one.

# Usage

	package main

	import (
		"fmt"
		"log"

		"github.com/aretw0/coach"
		"github.com/aretw0/coach/pkg/domain"
	)

	func main() {
		// The embedded productivity assistant table.
		eng, err := coach.New("")
		if err != nil {
			log.Fatal(err)
		}

		conv := eng.NewConversation("demo")
		conv.Open()

		transcript, err := conv.Select(domain.OptionRef{Text: "How do I stay motivated?"})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(transcript[len(transcript)-1].Message)
	}

# Table sources

New accepts an empty string (embedded table), a YAML/JSON document, or a directory of
markdown documents read through Loam. Use WithLoader to supply any ports.NodeLoader,
such as the fluent builder in pkg/dsl.
*/
package coach
