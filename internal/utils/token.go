package utils // package utils provides helper functions for token derivation

import (
    "crypto/sha256" // SHA-256 hashing for admission tokens
    "encoding/hex"  // hex encoding of the digest
    "fmt"           // formatting of the token input string
    "strings"       // case-insensitive comparison
)

// QueueToken derives the admission token for a (queue, userID) pair:
// hex(sha256("user-queue-<queue>-<userID>")). The derivation is a pure
// function of its inputs — no secret, no expiry — so any holder of the
// pair can recompute it. Possession of the token therefore proves only
// knowledge of the derivation; whether the user may actually proceed is
// checked separately against the store. The input format must not change:
// it is shared with every service that verifies these tokens.
func QueueToken(queue, userID string) (string, error) {
    digest := sha256.Sum256([]byte(fmt.Sprintf("user-queue-%s-%s", queue, userID)))
    return hex.EncodeToString(digest[:]), nil
}

// VerifyQueueToken recomputes the admission token for (queue, userID) and
// compares it with the presented value, ignoring case. An empty or
// malformed presented token simply fails the comparison; it is never an
// error.
func VerifyQueueToken(queue, userID, presented string) (bool, error) {
    want, err := QueueToken(queue, userID)
    if err != nil {
        return false, err
    }
    return strings.EqualFold(want, presented), nil
}
