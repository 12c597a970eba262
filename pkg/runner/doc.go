/*
Package runner implements the terminal surface of the dialogue engine.

The Runner opens a conversation, shows the greeting with its numbered options
and reads choices until the user quits or input ends. Choices are typed as the
option number or its label. I/O goes through an IOHandler: TextHandler for
people, JSONHandler for scripts and integration tests.

# Usage

	eng, _ := coach.New("")
	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx, eng.NewConversation("cli")); err != nil {
		log.Fatal(err)
	}
*/
package runner
