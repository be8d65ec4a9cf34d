// Package core defines the shared primitives of the framework: the Agent
// interface, Events and their polymorphic content Parts, the Session that
// carries shared execution state, and the RunContext threaded through every
// agent run.
package core
