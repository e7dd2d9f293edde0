// hash-api-key generates an API key and prints its hash. With -insert the hash
// is stored in api_keys with the given scopes.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/itchan-dev/anniv/backend/internal/storage/pg"
	"github.com/itchan-dev/anniv/shared/config"
	"github.com/itchan-dev/anniv/shared/crypto"
	"github.com/itchan-dev/anniv/shared/domain"
	"github.com/itchan-dev/anniv/shared/utils"
)

func main() {
	var (
		configFolder string
		key          string
		scopes       string
		insert       bool
		revoke       bool
	)
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.StringVar(&key, "key", "", "existing key to hash, a random one is generated when empty")
	flag.StringVar(&scopes, "scopes", domain.ScopeAdmin, "comma separated scopes")
	flag.BoolVar(&insert, "insert", false, "store the key hash in the database")
	flag.BoolVar(&revoke, "revoke", false, "revoke -key instead of storing it")
	flag.Parse()

	if key == "" {
		if revoke {
			log.Fatal("-revoke requires -key")
		}
		key = utils.GenerateAPIKey()
	}
	hash := crypto.HashSecret(key)

	fmt.Println("key: ", key)
	fmt.Println("hash:", hex.EncodeToString(hash))

	if !insert && !revoke {
		return
	}

	cfg := config.MustLoad(configFolder)
	ctx := context.Background()
	storage, err := pg.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer storage.Cleanup()

	if revoke {
		if err := storage.RevokeAPIKey(ctx, hash); err != nil {
			log.Fatal(err)
		}
		fmt.Println("revoked")
		return
	}

	list := strings.Split(scopes, ",")
	for i := range list {
		list[i] = strings.TrimSpace(list[i])
	}
	if err := storage.SaveAPIKey(ctx, hash, list); err != nil {
		log.Fatal(err)
	}
	fmt.Println("stored with scopes:", strings.Join(list, ","))
}
