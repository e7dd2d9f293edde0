package main

import (
	"fmt"
	"log"

	"github.com/itchan-dev/anniv/shared/crypto"
)

func main() {
	key, err := crypto.GenerateKey()
	if err != nil {
		log.Fatalf("Failed to generate hash key: %v", err)
	}

	fmt.Println("=================================================")
	fmt.Println("  Email Hash Key (BLAKE2b-256)")
	fmt.Println("=================================================")
	fmt.Println()
	fmt.Println("Generated key (base64):")
	fmt.Println(key)
	fmt.Println()
	fmt.Println("Add this to your config/private.yaml:")
	fmt.Printf("email_hash_key: \"%s\"\n", key)
	fmt.Println()
	fmt.Println("IMPORTANT:")
	fmt.Println("- Changing the key breaks duplicate detection for existing users")
	fmt.Println("- Never commit this key to version control")
	fmt.Println("=================================================")
}
