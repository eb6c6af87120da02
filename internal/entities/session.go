package entities

// SessionID identifies one decode run in logs and the debug dump.
type SessionID string
