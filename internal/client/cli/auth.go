package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/boardsync/internal/client/storage"
	"github.com/iudanet/boardsync/internal/validation"
	"github.com/iudanet/boardsync/pkg/api"
)

func (c *Cli) runRegister(ctx context.Context, _ []string) error {
	c.io.Println("=== Registration ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	if err := validation.ValidateUsername(username); err != nil {
		return err
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return err
	}

	confirm, err := c.io.ReadPassword("Confirm password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if confirm != password {
		return errors.New("passwords do not match")
	}

	avatar, err := c.io.ReadInput("Avatar URL (optional): ")
	if err != nil {
		return fmt.Errorf("failed to read avatar url: %w", err)
	}
	if err := validation.ValidateAvatarURL(avatar); err != nil {
		return err
	}

	if _, err := c.api.Register(ctx, api.RegisterRequest{Username: username, Password: password, AvatarURL: avatar}); err != nil {
		return err
	}
	c.io.Println("✓ Registration successful!")

	return c.login(ctx, username, password)
}

func (c *Cli) runLogin(ctx context.Context, _ []string) error {
	c.io.Println("=== Login ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	password, err := c.io.ReadPassword("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	return c.login(ctx, username, password)
}

func (c *Cli) login(ctx context.Context, username, password string) error {
	resp, err := c.api.Login(ctx, api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return err
	}

	auth := &storage.AuthData{
		Username:    username,
		UserID:      resp.UserID,
		ServerURL:   c.api.BaseURL(),
		AccessToken: resp.AccessToken,
		ExpiresAt:   c.now().Unix() + resp.ExpiresIn,
	}
	if err := c.store.SaveAuth(ctx, auth); err != nil {
		return fmt.Errorf("failed to save auth data: %w", err)
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("Username: %s\n", username)
	c.io.Printf("Access token expires in: %s\n", time.Duration(resp.ExpiresIn)*time.Second)
	return nil
}

func (c *Cli) runLogout(ctx context.Context, _ []string) error {
	if err := c.store.DeleteAuth(ctx); err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			c.io.Println("Not logged in.")
			return nil
		}
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	return nil
}

func (c *Cli) runStatus(ctx context.Context, _ []string) error {
	c.io.Println("=== Authentication Status ===")

	auth, err := c.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			c.io.Println("Status: Not authenticated")
			c.io.Println("Run 'boardsync login' to authenticate.")
			return nil
		}
		return fmt.Errorf("failed to get auth data: %w", err)
	}

	expiresAt := time.Unix(auth.ExpiresAt, 0)
	if auth.Expired(c.now()) {
		c.io.Println("Status: Expired")
	} else {
		c.io.Println("Status: Authenticated")
	}
	c.io.Printf("Username: %s\n", auth.Username)
	c.io.Printf("Server: %s\n", auth.ServerURL)
	c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
