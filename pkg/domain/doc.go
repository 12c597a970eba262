/*
Package domain contains the core models of the coach dialogue engine.

It defines the entities of the conversational state machine: the Nodes of the
response table, the Options that link them, and the Session that pairs the
current state with its transcript. The package is kept free of I/O and
persistence concerns.

# Key Entities

  - Node: a state of the conversation (message plus ordered options).
  - Option: a labeled transition to a named next state.
  - Entry: one turn of the transcript, spoken by the user or the bot.
  - Session: current state and append-only transcript of one open surface.
*/
package domain
