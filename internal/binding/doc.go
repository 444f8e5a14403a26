// Package binding ties a typed in-memory value to a storage key.
//
// Every Binding writes through to storage on change and announces the
// new raw value on a process-wide Bus, so other bindings of the same key
// in the process pick it up immediately. Changes made by other processes
// arrive as storage events and are relayed onto the same Bus.
package binding
