// vaultctl manages a GhostVault: an encrypted local file store with
// master/decoy/panic password roles, PBKDF2-HMAC-SHA256 key
// derivation, and AES-256-GCM authenticated encryption for every blob
// and the metadata registry.
package main

import (
	"ghostvault/internal/cli"
)

const version = "v1.0"

func main() {
	cli.Execute(version)
}
