/*
Package domain contains the core types of the Espalier engine: plan graphs
(nodes, conditioned edges, verification specs), the per-session traversal
state, and the bounded event trace.

Types here carry no behavior beyond bookkeeping; the traversal semantics live
in the runtime engine.
*/
package domain
