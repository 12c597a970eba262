/*
Package table holds the response table: the fixed universe of conversation
states.

A Table is built once from a ports.NodeLoader and is immutable afterwards.
Lookups return copies, so option lists cannot be altered through the table.
A missing state is reported as "not found" rather than an error; substituting
the fallback node is the controller's job.
*/
package table
