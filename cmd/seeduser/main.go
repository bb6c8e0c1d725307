// cmd/seeduser/main.go: creates a demo employee and prints a signed token for it.
// Usage: go run ./cmd/seeduser -name "Admin Demo" -role admin
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"sdkadmin/internal/config"
	"sdkadmin/internal/infra"
	"sdkadmin/internal/middleware"
	"sdkadmin/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	name := flag.String("name", "Admin Demo", "display name")
	role := flag.String("role", model.RoleAdmin, "staff | reviewer | admin")
	branch := flag.String("branch", "Head Office", "branch")
	flag.Parse()

	switch *role {
	case model.RoleStaff, model.RoleReviewer, model.RoleAdmin:
	default:
		log.Fatalf("unknown role %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set to sign a token")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, false)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}

	emp := model.Employee{
		Name:           *name,
		Branch:         *branch,
		RequiresCashUp: *role == model.RoleStaff,
		Active:         true,
	}
	if err := db.WithContext(context.Background()).
		Where(model.Employee{Name: *name}).
		Attrs(emp).
		FirstOrCreate(&emp).Error; err != nil {
		log.Fatalf("insert error: %v", err)
	}

	claims := middleware.JWTClaims{
		UserID: emp.ID.String(),
		Name:   emp.Name,
		Role:   *role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(cfg.JWTExpirationHours) * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		log.Fatalf("sign error: %v", err)
	}

	fmt.Printf("✅ employee %s (%s)\n", emp.ID, emp.Name)
	fmt.Println(token)
}
