/*
Package session hosts many conversations at once for surfaces such as the HTTP
and MCP adapters.

The Manager serializes operations per session ID with reference-counted local
locks and, optionally, a distributed lock so that several replicas can share a
store. Hosting is not resumption: Open always starts at the greeting and Close
removes the session.
*/
package session
