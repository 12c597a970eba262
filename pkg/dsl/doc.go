/*
Package dsl provides a fluent builder for constructing response tables in Go code.

It is an alternative to YAML or markdown sources, useful for unit tests and for
tables generated at runtime.

Example usage:

	b := dsl.New()

	b.Greeting("Hi! What would you like help with today?").
		Option("How do I stay motivated?", "motivation").
		Option("Tips for managing my time", "time-management")

	b.Add("motivation").
		Say("Start small and celebrate each win.").
		Home()

	b.Fallback("Sorry, I am not able to answer that question.")

	loader, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}
	eng, err := coach.New("", coach.WithLoader(loader))
*/
package dsl
