// Package memory implements the hybrid memory system for a financial chat
// assistant: a bounded, expiring short-term tier of recent conversation and a
// durable, embedding-indexed long-term tier of important exchanges.
//
// Architecture:
//   - ShortTermStore: per-user windowed recent history with TTL
//     (Redis for deployments, ristretto for local development)
//   - LongTermStore: vector storage with metadata filters
//     (chromem-go embedded vector database)
//   - Embedder: text-to-vector conversion (OpenAI API, local ONNX, or mock)
//   - strategy.Evaluator: decides per turn whether an exchange deserves
//     durable storage, and under which memory type
//   - HybridManager: the facade callers interact with
//
// Writes go to the short-term tier unconditionally; a turn is promoted to the
// long-term tier only when the strategy evaluator scores it above the
// configured importance threshold. Reads assemble three labeled sections
// (recent conversation, important memories, related memories) so prompt
// construction keeps provenance.
//
// Long-term storage is best-effort enrichment: embedding and vector-store
// failures are logged and never fail the caller's turn.
package memory
