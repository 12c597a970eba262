package coach_test

import (
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/coach"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/dsl"
)

// ExampleNew_embedded walks the built-in productivity assistant table.
func ExampleNew_embedded() {
	eng, err := coach.New("")
	if err != nil {
		log.Fatal(err)
	}

	conv := eng.NewConversation("example")
	conv.Open()

	transcript, err := conv.Select(domain.OptionRef{Text: "How do I stay motivated?"})
	if err != nil {
		log.Fatal(err)
	}

	reply := transcript[len(transcript)-1]
	first, _, _ := strings.Cut(reply.Message, "\n")
	fmt.Println(len(transcript), conv.CurrentState())
	fmt.Println(first)
	// Output:
	// 3 motivation
	// Here are powerful motivation strategies:
}

// ExampleNew_dsl builds a table in code and shows the fallback at work.
func ExampleNew_dsl() {
	b := dsl.New()
	b.Greeting("Hi! Pick a topic.").
		Option("Habits", "habits").
		Option("Breathing exercise", "breathing-exercise")
	b.Add("habits").Say("Stack new habits onto old ones.").Home()
	b.Fallback("Sorry, I am not able to answer that question.")

	loader, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	eng, err := coach.New("", coach.WithLoader(loader))
	if err != nil {
		log.Fatal(err)
	}

	conv := eng.NewConversation("example")
	conv.Open()
	transcript, _ := conv.Select(domain.OptionRef{Index: 2})

	last := transcript[len(transcript)-1]
	fmt.Println(conv.CurrentState())
	fmt.Println(last.Message)
	for i, opt := range last.Options {
		fmt.Printf("%d. %s\n", i+1, opt.Text)
	}
	// Output:
	// default
	// Sorry, I am not able to answer that question.
	// 1. Back to main menu
}
