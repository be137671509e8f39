package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nimasrn/review-runner/internal/model"
	"github.com/nimasrn/review-runner/internal/repository"
	"github.com/nimasrn/review-runner/internal/validate"
	"github.com/spf13/cobra"
)

type userStore interface {
	Upsert(ctx context.Context, u *model.User) (*model.User, error)
	LinkBusiness(ctx context.Context, id, businessID string) error
}

type businessLookup interface {
	GetByID(ctx context.Context, id string) (*model.Business, error)
}

type createUserOptions struct {
	ProviderID string
	Email      string
	Name       string
	BusinessID string
}

func createUserCmd() *cobra.Command {
	var opts createUserOptions

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Provision a user, optionally linked to a business",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			return createUser(cmd.Context(), cmd.OutOrStdout(),
				repository.NewUserRepository(db), repository.NewBusinessRepository(db), opts)
		},
	}
	cmd.Flags().StringVar(&opts.ProviderID, "provider-id", "", "identity provider user id")
	cmd.Flags().StringVar(&opts.Email, "email", "", "user email")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.BusinessID, "business", "", "business id to link")
	_ = cmd.MarkFlagRequired("provider-id")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func createUser(ctx context.Context, out io.Writer, users userStore, businesses businessLookup, opts createUserOptions) error {
	if !validate.IsValidEmail(opts.Email) {
		return fmt.Errorf("invalid email %q", opts.Email)
	}
	if opts.BusinessID != "" {
		if _, err := businesses.GetByID(ctx, opts.BusinessID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("business %s does not exist", opts.BusinessID)
			}
			return err
		}
	}

	user, err := users.Upsert(ctx, &model.User{
		ProviderUserID: opts.ProviderID,
		Email:          opts.Email,
		Name:           opts.Name,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if opts.BusinessID != "" {
		if err := users.LinkBusiness(ctx, user.ID, opts.BusinessID); err != nil {
			if errors.Is(err, repository.ErrConcurrentUpdate) {
				return fmt.Errorf("user %s is already linked to a business", user.ID)
			}
			return fmt.Errorf("failed to link business: %w", err)
		}
	}

	fmt.Fprintf(out, "user %s (%s)", user.ID, user.Email)
	if opts.BusinessID != "" {
		fmt.Fprintf(out, " linked to business %s", opts.BusinessID)
	}
	fmt.Fprintln(out)
	return nil
}
