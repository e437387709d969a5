/*
Package ports defines the driven-port interfaces that decouple the Espalier
engine from its collaborators: the read-only plan library, session state
persistence, the host's turn history, and the escalation sink.
*/
package ports
