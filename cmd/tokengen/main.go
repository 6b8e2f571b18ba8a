// Command tokengen mints an access token for local testing against the
// back-office API, signed with JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/cinema-backoffice/internal/model"
	"github.com/iliyamo/cinema-backoffice/internal/utils"
)

func main() {
	_ = godotenv.Load()

	user := flag.String("user", "", "user id (sub claim)")
	role := flag.String("role", model.RoleManager, "ADMIN or MANAGER")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	uid, err := model.NewID(*user)
	if err != nil || uid.IsZero() {
		log.Fatal("-user is required")
	}

	tok, err := utils.NewAccessToken(secret, model.Principal{UserID: uid, Role: strings.ToUpper(*role)}, *ttl)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(tok.Token)
}
