// issue-token signs an operator JWT with the configured jwt_secret.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/itchan-dev/anniv/shared/config"
	"github.com/itchan-dev/anniv/shared/domain"
	"github.com/itchan-dev/anniv/shared/jwt"
)

func main() {
	var (
		configFolder string
		subject      string
		scopes       string
		ttl          time.Duration
	)
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.StringVar(&subject, "subject", "operator", "token subject")
	flag.StringVar(&scopes, "scopes", domain.ScopeAdmin, "comma separated scopes")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	if cfg.Private.JwtSecret == "" {
		log.Fatal("jwt_secret is not configured")
	}

	token, err := jwt.New(cfg.Private.JwtSecret, ttl).NewToken(subject, strings.Split(scopes, ","))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}
