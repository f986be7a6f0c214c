// Command token prints a bearer token accepted by the API's write routes.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"bookrental/config"
	"bookrental/util/jwt"
)

func main() {
	subject := flag.String("sub", "librarian", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	secret := flag.String("secret", "", "signing secret (defaults to JWT_SECRET from config)")
	flag.Parse()

	if *secret == "" {
		cfg, err := config.Load("")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		*secret = cfg.JWTSecret
	}
	tok, err := jwt.Issue(*secret, *subject, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
