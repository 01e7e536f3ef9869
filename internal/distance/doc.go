// Package distance holds the in-memory score store and the engine that ranks
// guests by how close their thematic scores are.
//
// # Locking
//
// The store has three independently locked resources: the score table, the
// thematic registry and the other-guest registry. The thematic ids and their
// cached count share one guard and always change together. Every operation
// takes only the locks it needs. There is no snapshot isolation across
// resources: a Clear running concurrently with a ranking pass may leave that
// pass seeing scores that are already gone next to thematics that are not,
// or the reverse. Callers that need a consistent view across resources must
// serialize access themselves.
//
// Engine.Rank holds the other-guest lock for the whole pass. Each
// TotalDistance call holds the thematic lock while it runs and looks scores
// up one at a time under the score lock.
//
// # Fatal faults
//
// A panic that unwinds through a critical section poisons the resource it
// held. Any later operation touching that resource panics with a
// *FatalError wrapping ErrPoisoned, including one that was already blocked
// on the lock when the panic happened. There is no way to repair a poisoned
// store; build a new one.
package distance
