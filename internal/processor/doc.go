// Package processor contains the core business logic for turning documents
// into flashcard sets. It checks the preconditions for a generation run,
// drives the generation service and stores the resulting set. Batch runs
// and exports are coordinated here as well, making this package the main
// coordinator between the store and the other components.
package processor
