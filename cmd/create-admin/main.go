// Command create-admin creates an identity with admin membership through
// the running API, authenticated by the service-role key.
//
// Usage: create-admin <email> <password>
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"market-admin/internal/auth"
	"market-admin/internal/logger"
	"market-admin/pkg/adminclient"
)

func main() {
	_ = godotenv.Load(".env.local", ".env")

	apiURL := os.Getenv("API_URL")
	serviceKey := os.Getenv("SERVICE_ROLE_KEY")
	if apiURL == "" || serviceKey == "" {
		fmt.Fprintln(os.Stderr, "Missing environment variables:")
		fmt.Fprintln(os.Stderr, "   API_URL and SERVICE_ROLE_KEY are required")
		fmt.Fprintln(os.Stderr, "\nPlease create a .env.local file with the API location and service-role key")
		os.Exit(1)
	}

	if len(os.Args) < 3 || os.Args[1] == "" || os.Args[2] == "" {
		fmt.Fprintln(os.Stderr, "Usage: create-admin <email> <password>")
		fmt.Fprintln(os.Stderr, "\nExample:")
		fmt.Fprintln(os.Stderr, "  create-admin admin@example.com mySecurePassword123")
		os.Exit(1)
	}
	email, password := os.Args[1], os.Args[2]

	if err := auth.ValidateCredentials(email, password); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail):
			fmt.Fprintln(os.Stderr, "Invalid email format")
		case errors.Is(err, auth.ErrWeakPassword):
			fmt.Fprintln(os.Stderr, "Password must be at least 8 characters long")
		default:
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	log := logger.New(os.Getenv("LOG_LEVEL"), "text")
	client := adminclient.New(apiURL, &http.Client{Timeout: 30 * time.Second}, log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Printf("Creating admin user: %s\n", email)
	resp, err := client.SignUp(ctx, &adminclient.SignupRequest{
		Email:    email,
		Password: password,
		Role:     adminclient.RoleAdmin,
		Permissions: map[string]bool{
			adminclient.PermManageProducts:    true,
			adminclient.PermManageOrders:      true,
			adminclient.PermManageUsers:       true,
			adminclient.PermManageCategories:  true,
			adminclient.PermManageSubmissions: true,
			adminclient.PermViewAnalytics:     true,
		},
	}, serviceKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating admin user: %v\n", err)
		os.Exit(1)
	}
	if resp.Admin == nil {
		// The server treated the call as a plain sign-up.
		fmt.Fprintln(os.Stderr, "Error creating admin user: service-role key was not accepted")
		os.Exit(1)
	}

	fmt.Println("Admin user created successfully!")
	fmt.Printf("Email:    %s\n", resp.User.Email)
	fmt.Printf("User ID:  %s\n", resp.User.ID)
	fmt.Printf("Admin ID: %s\n", resp.Admin.ID)
	fmt.Println("\nYou can now sign in with `adminctl login`")
}
