// Package database stores Slack installations and their WAVE API keys.
//
// Store is the capability the rest of wavebot depends on. InstallDB
// implements it on SQLite and MemoryStore implements it in memory for
// tests and throwaway runs.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. The data set is one row per workspace, far below what needs a server
// 2. CGO-free implementation allows easy cross-compilation
// 3. WAL mode lets the slash command handler read while the config page writes
//
// Bot tokens and WAVE API keys are sealed with a secret.Box when one is
// configured. Rows written before a box was configured stay readable as
// plaintext and are sealed the next time they are written.
package database
