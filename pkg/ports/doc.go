/*
Package ports defines the driven ports (interfaces) of the coach engine.

These interfaces decouple the dialogue core from external implementations,
allowing the response table to come from different sources and hosted
sessions to live in different stores.

# Key Interfaces

  - NodeLoader: Supplies raw node definitions (embedded YAML, a file, a Loam directory, memory).
  - SessionStore: Holds the sessions of a multi-surface host while they are open.
  - DistributedLocker: Serializes access to a session across replicas.
  - DialogueEngine: The operations a host needs from the core.
*/
package ports
