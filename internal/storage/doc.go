// Package storage provides string key-value stores used to persist the token mapping.
//
// Backends:
//   - SQLite: rows in the kv_items table of the application database (default)
//   - File: one JSON object on disk, written atomically with 0600 permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, Secret Service)
//   - Memory: process-local map, for tests and throwaway sessions
//
// A missing key is reported with ok=false, never as an error.
package storage
