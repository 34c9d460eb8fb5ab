package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sasbridge/internal/adapter/repo"
	"sasbridge/internal/auth"
	"sasbridge/internal/domain"
)

func main() {
	var (
		idFlag     string
		emailFlag  string
		rotateFlag bool
		quotaFlag  int
	)

	flag.StringVar(&idFlag, "id", "", "user ID to update (UUID)")
	flag.StringVar(&emailFlag, "email", "", "user email to update")
	flag.BoolVar(&rotateFlag, "rotate", false, "mint a new API key for the user")
	flag.IntVar(&quotaFlag, "quota", 0, "monthly request limit to assign (set <=0 to keep current value)")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	email := strings.TrimSpace(strings.ToLower(emailFlag))

	if userID == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}
	if !rotateFlag && quotaFlag <= 0 {
		exitWithError(errors.New("nothing to do: pass -rotate and/or -quota"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	users := repo.NewUserRepository(pool)

	lookupCtx, cancelLookup := context.WithTimeout(context.Background(), 5*time.Second)
	var user *domain.User
	if userID != "" {
		user, err = users.GetByID(lookupCtx, userID)
	} else {
		user, err = users.GetByEmail(lookupCtx, email)
	}
	cancelLookup()
	if err != nil {
		exitWithError(fmt.Errorf("failed to load user: %w", err))
	}

	updateCtx, cancelUpdate := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelUpdate()

	if quotaFlag > 0 {
		if err := users.SetMonthlyLimit(updateCtx, user.ID, quotaFlag); err != nil {
			exitWithError(fmt.Errorf("failed to update monthly limit: %w", err))
		}
		user.MonthlyLimit = quotaFlag
	}

	if rotateFlag {
		newKey, err := auth.GenerateAPIKey()
		if err != nil {
			exitWithError(fmt.Errorf("failed to generate api key: %w", err))
		}
		if err := users.RotateAPIKey(updateCtx, user.ID, newKey); err != nil {
			exitWithError(fmt.Errorf("failed to rotate api key: %w", err))
		}
		user.APIKey = newKey
	}

	fmt.Printf("User %s (%s) updated\n", user.ID, user.Email)
	fmt.Printf("monthly_request_limit=%d\n", user.MonthlyLimit)
	if rotateFlag {
		fmt.Printf("api_key=%s\n", user.APIKey)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
