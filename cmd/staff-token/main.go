// Command staff-token prints a staff access token signed with JWT_SECRET,
// for calling the staff API from scripts and local dashboards.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/escape-room-booking/internal/auth"
)

func main() {
	_ = godotenv.Load()

	user := flag.String("user", "1", "subject (user id)")
	email := flag.String("email", "", "staff email")
	role := flag.String("role", "admin", "admin or subadmin")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	tok, err := auth.NewAccessToken(os.Getenv("JWT_SECRET"), auth.Claims{
		UserID: *user,
		Email:  *email,
		Role:   *role,
	}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "staff-token:", err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
	fmt.Fprintln(os.Stderr, "expires", tok.Exp.Format(time.RFC3339))
}
