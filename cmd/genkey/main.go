package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Prints a fresh admin key for DELETE /memories and the ADMIN_KEY_HASH line
// the server expects. -key hashes an existing key instead.
func main() {
	key := flag.String("key", "", "existing admin key to hash")
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	if *key == "" {
		raw := make([]byte, 24)
		if _, err := rand.Read(raw); err != nil {
			panic(err)
		}
		*key = base64.RawURLEncoding.EncodeToString(raw)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*key), *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Admin key (send as X-Admin-Key): %s\n", *key)
	fmt.Printf("ADMIN_KEY_HASH=%s\n", hash)
}
