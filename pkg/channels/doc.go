// Package channels holds the configured backend endpoints ("channels") that
// chat-completion requests can be routed to.
//
// A Registry is a pure in-memory structure. It performs no I/O and never
// blocks; persistence belongs to the config package, which hands the
// routing engine an immutable Snapshot per invocation.
//
// # Ordering
//
// List returns enabled channels sorted by (priority ascending, name
// ascending), so two registries holding the same records always yield the
// same order:
//
//	reg := channels.NewRegistry()
//	_ = reg.Insert(channels.Channel{Name: "b", URL: "...", Enabled: true, Priority: 0})
//	_ = reg.Insert(channels.Channel{Name: "a", URL: "...", Enabled: true, Priority: 1})
//	for _, ch := range reg.EligibleFor("gpt-4") {
//	    fmt.Println(ch.Name) // b, then a
//	}
//
// # Errors
//
// Insert fails with ErrDuplicateName when the name is taken; Get, Update
// and Remove fail with ErrNotFound for unknown names. Both are returned as
// typed errors that match the sentinels via errors.Is.
package channels
