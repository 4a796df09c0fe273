package rdf

import (
	"crypto/sha256"
	"encoding/hex"
)

// DomainStatement is the domain prefix for statement identity hashes.
// The version suffix leaves room for a future algorithm change.
const DomainStatement = "rdfio/statement/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StatementID returns a content-addressed identity for a statement.
// Two statements have the same ID iff their N-Quads renderings are equal.
func StatementID(s Statement) string {
	return hashWithDomain(DomainStatement, []byte(s.String()))
}
