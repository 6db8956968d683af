package main

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/nerrad567/device-inventory/internal/auth"
	"github.com/nerrad567/device-inventory/internal/infrastructure/config"
)

// runToken prints a signed bearer token. The secret comes from the
// configuration (or INVENTORY_JWT_SECRET).
func runToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	subject := fs.String("subject", "", "operator name recorded as the token subject")
	role := fs.String("role", string(auth.RoleOperator), "role: operator or admin")
	ttl := fs.Duration("ttl", 0, "token lifetime (default security.jwt.access_token_ttl minutes)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, _, err := config.LoadOrDefault(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if !cfg.AuthEnabled() {
		return fmt.Errorf("security.jwt.secret is not set; authentication is disabled")
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.Security.JWT.AccessTokenTTL) * time.Minute
	}

	token, err := auth.IssueToken(*subject, auth.Role(*role), cfg.Security.JWT.Secret, lifetime)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
